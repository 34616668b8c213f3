package models

// Connection is a directed edge between two steps.
type Connection struct {
	ID           string `json:"id"                     validate:"required"`
	SourceStepID string `json:"source"                 validate:"required"`
	TargetStepID string `json:"target"                 validate:"required"`
	SourcePort   string `json:"sourceHandle,omitempty"` // Empty for single-output steps
}

// SameEdge reports whether two connections join the same endpoints through the same port.
func (c Connection) SameEdge(other Connection) bool {
	return c.SourceStepID == other.SourceStepID &&
		c.TargetStepID == other.TargetStepID &&
		c.SourcePort == other.SourcePort
}
