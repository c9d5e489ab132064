// Package models defines the Studio payloads exchanged by the move picker.
package models

// XBlockInfo is one node of the nested course outline returned by Studio.
type XBlockInfo struct {
	ID          string     `json:"id"`
	Category    string     `json:"category"`
	DisplayName string     `json:"display_name"`
	ChildInfo   *ChildInfo `json:"child_info,omitempty"`
}

// ChildInfo describes the children of an outline node.
type ChildInfo struct {
	Category    string        `json:"category"`
	DisplayName string        `json:"display_name"`
	Children    []*XBlockInfo `json:"children"`
}

// Ancestor is one entry of the ancestorInfo response.
type Ancestor struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	DisplayName string `json:"display_name"`
}

// AncestorInfo is the body of GET {xblock}/{usageId}?fields=ancestorInfo.
// Ancestors are ordered nearest first.
type AncestorInfo struct {
	Ancestors []Ancestor `json:"ancestors"`
}

// MoveRequest is the PATCH body that moves an xblock under a new parent.
type MoveRequest struct {
	SourceLocator string `json:"move_source_locator"`
	ParentLocator string `json:"parent_locator"`
	TargetIndex   *int   `json:"targetIndex,omitempty"`
}

// MoveResponse is Studio's answer to a move.
type MoveResponse struct {
	SourceLocator string `json:"move_source_locator"`
	ParentLocator string `json:"parent_locator"`
	TargetIndex   *int   `json:"target_index,omitempty"`
	SourceIndex   *int   `json:"source_index,omitempty"`
}
