package domain

import (
	"errors"
	"time"
)

// ErrInvalidAccessibility is returned for a classification outside
// full/partial/none.
var ErrInvalidAccessibility = errors.New("invalid accessibility")

// Node is a place with wheelchair accessibility metadata as returned by
// the Wheelmap API.
type Node struct {
	ID                    int64     `json:"id"`
	OSMID                 string    `json:"osm_id,omitempty"`
	OSMType               string    `json:"osm_type,omitempty"`
	Name                  *string   `json:"name"`
	Lat                   float64   `json:"lat"`
	Lon                   float64   `json:"lon"`
	NodeType              *NodeType `json:"node_type,omitempty"`
	Category              *NodeType `json:"category,omitempty"`
	Wheelchair            string    `json:"wheelchair,omitempty"`
	WheelchairDescription string    `json:"wheelchair_description,omitempty"`
	WheelchairToilet      string    `json:"wheelchair_toilet,omitempty"`
	Street                string    `json:"street,omitempty"`
	Housenumber           string    `json:"housenumber,omitempty"`
	City                  string    `json:"city,omitempty"`
	Postcode              string    `json:"postcode,omitempty"`
	Website               string    `json:"website,omitempty"`
	Phone                 string    `json:"phone,omitempty"`
	Distance              *float64  `json:"distance,omitempty"` // computed field
}

// NodeType is a Wheelmap node type or category reference.
type NodeType struct {
	Identifier string `json:"identifier"`
}

// Accessibility is the community-maintained classification of a node.
type Accessibility string

const (
	AccessibilityFull    Accessibility = "full"
	AccessibilityPartial Accessibility = "partial"
	AccessibilityNone    Accessibility = "none"
)

// Valid reports whether a is one of the known classifications.
func (a Accessibility) Valid() bool {
	switch a {
	case AccessibilityFull, AccessibilityPartial, AccessibilityNone:
		return true
	}
	return false
}

// Wheelchair returns the Wheelmap wheelchair value matching a.
func (a Accessibility) Wheelchair() string {
	switch a {
	case AccessibilityFull:
		return "yes"
	case AccessibilityPartial:
		return "limited"
	case AccessibilityNone:
		return "no"
	}
	return ""
}

// AccessibilityOverride replaces the upstream wheelchair value of a node.
type AccessibilityOverride struct {
	OSMID         string        `json:"osm_id"`
	Accessibility Accessibility `json:"accessibility"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
