// Package model provides data models for the Newsloom platform.
package model

import (
	"time"
)

// Supported workspace languages.
const (
	LanguageFrench  = "fr"
	LanguageEnglish = "en"
	LanguageGerman  = "de"
)

// Workspace represents an editorial scope owned by an organization.
// The Description and RelevanceCriteria fields carry the free-form
// editorial intent consumed by the relevance evaluators.
type Workspace struct {
	ID                string    `bson:"_id" json:"id"`
	OrganizationID    string    `bson:"organization_id" json:"organization_id"`
	Name              string    `bson:"name" json:"name"`
	Description       string    `bson:"description" json:"description"`
	Language          string    `bson:"language" json:"language"`
	RelevanceCriteria string    `bson:"relevance_criteria" json:"relevance_criteria"`
	Enabled           bool      `bson:"enabled" json:"enabled"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// CollectionName specifies the MongoDB collection for Workspace.
func (Workspace) CollectionName() string {
	return "workspaces"
}

// ValidLanguage reports whether lang is a supported workspace language.
func ValidLanguage(lang string) bool {
	switch lang {
	case LanguageFrench, LanguageEnglish, LanguageGerman:
		return true
	}
	return false
}

// Organization represents the owner of one or more workspaces.
type Organization struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// CollectionName specifies the MongoDB collection for Organization.
func (Organization) CollectionName() string {
	return "organizations"
}
