// Package models defines the core domain models for lead automation flows.
package models

import "strings"

// NodeType identifies the behaviour attached to a flow node.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeEmail     NodeType = "email"
	NodeTypeDelay     NodeType = "delay"
	NodeTypeCondition NodeType = "condition"
)

// NormalizeNodeType lowercases and trims a stored node type so that "Email" and
// " email " dispatch to the same executor.
func NormalizeNodeType(t string) NodeType {
	return NodeType(strings.ToLower(strings.TrimSpace(t)))
}

// Flow is a user-authored automation graph owned by a tenant.
type Flow struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Graph   Graph  `json:"graph"`
}

// Graph is the canonical shape of a flow document. Nodes and Edges are never nil
// once produced by the normalizer.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one step of a flow. Data holds type specific fields, e.g. "minutes"
// for delay nodes or "template_id" / "subject" / "html" for email nodes.
type Node struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Kind returns the normalized node type.
func (n Node) Kind() NodeType {
	return NormalizeNodeType(n.Type)
}

// Edge connects two nodes. Only Source and Target take part in routing.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}
