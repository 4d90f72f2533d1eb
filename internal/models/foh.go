package models

import "time"

// FOHBriefing is the derived front-of-house sheet for one service
type FOHBriefing struct {
	MenuID          string         `json:"menuId,omitempty"`
	MenuName        string         `json:"menuName,omitempty"`
	ServiceDate     time.Time      `json:"serviceDate,omitempty"`
	GeneratedAt     time.Time      `json:"generatedAt"`
	Dishes          []DishBriefing `json:"dishes"`
	AllergenSummary []TagCount     `json:"allergenSummary"`
	DietarySummary  []TagCount     `json:"dietarySummary"`
	SignatureDishes []string       `json:"signatureDishes"`
	NewDishes       []string       `json:"newDishes"`
	Warnings        []Warning      `json:"warnings"`
}

// DishBriefing holds what servers need to know about one dish
type DishBriefing struct {
	ItemID          string       `json:"itemId"`
	Name            string       `json:"name"`
	Category        string       `json:"category,omitempty"`
	Price           float64      `json:"price,omitempty"`
	TalkingPoints   []string     `json:"talkingPoints"`
	SuggestedPoints []string     `json:"suggestedPoints,omitempty"`
	Allergens       []string     `json:"allergens"`
	DietaryInfo     []string     `json:"dietaryInfo"`
	IsSignature     bool         `json:"isSignature"`
	IsNew           bool         `json:"isNew"`
	RecipeStatus    RecipeStatus `json:"recipeStatus"`
}

// TagCount counts how many dishes carry a tag
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
