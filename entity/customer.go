package entity

import (
	"strings"
)

const (
	CustomerSegmentNew      = "New"
	CustomerSegmentActive   = "Active"
	CustomerSegmentInactive = "Inactive"
)

var CustomerSegments = []string{
	CustomerSegmentNew,
	CustomerSegmentActive,
	CustomerSegmentInactive,
}

type Customer struct {
	ID         *string  `json:"id,omitempty"`
	Name       *string  `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Segment    *string  `json:"segment,omitempty"`
	TotalSpend *float64 `json:"total_spend,omitempty"`
	VisitCount *uint64  `json:"visit_count,omitempty"`
	LastVisit  *uint64  `json:"last_visit,omitempty"`
	CreateTime *uint64  `json:"create_time,omitempty"`
	UpdateTime *uint64  `json:"update_time,omitempty"`
}

func (e *Customer) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Customer) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Customer) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *Customer) GetPhone() string {
	if e != nil && e.Phone != nil {
		return *e.Phone
	}
	return ""
}

func (e *Customer) GetSegment() string {
	if e != nil && e.Segment != nil {
		return *e.Segment
	}
	return ""
}

func (e *Customer) GetTotalSpend() float64 {
	if e != nil && e.TotalSpend != nil {
		return *e.TotalSpend
	}
	return 0
}

func (e *Customer) GetVisitCount() uint64 {
	if e != nil && e.VisitCount != nil {
		return *e.VisitCount
	}
	return 0
}

// FirstName returns the leading whitespace-delimited token of the
// customer's name, or "there" when the name is empty.
func (e *Customer) FirstName() string {
	fields := strings.Fields(e.GetName())
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
