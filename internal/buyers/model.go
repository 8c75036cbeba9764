package buyers

import (
	"strings"
	"time"
)

// City is the buyer's target city.
type City string

const (
	CityChandigarh City = "CHANDIGARH"
	CityMohali     City = "MOHALI"
	CityZirakpur   City = "ZIRAKPUR"
	CityPanchkula  City = "PANCHKULA"
	CityOther      City = "OTHER"
)

// PropertyType is the kind of property the buyer is looking for.
type PropertyType string

const (
	PropertyApartment PropertyType = "APARTMENT"
	PropertyVilla     PropertyType = "VILLA"
	PropertyPlot      PropertyType = "PLOT"
	PropertyOffice    PropertyType = "OFFICE"
	PropertyRetail    PropertyType = "RETAIL"
)

// BHK is the bedroom-count category, only meaningful for residential types.
type BHK string

const (
	BHKStudio BHK = "STUDIO"
	BHK1      BHK = "BHK1"
	BHK2      BHK = "BHK2"
	BHK3      BHK = "BHK3"
	BHK4      BHK = "BHK4"
)

// Purpose distinguishes buy vs rent leads.
type Purpose string

const (
	PurposeBuy  Purpose = "BUY"
	PurposeRent Purpose = "RENT"
)

// Timeline is the buyer's purchase horizon.
type Timeline string

const (
	TimelineImmediate Timeline = "IMMEDIATE"
	TimelineMonths3   Timeline = "MONTHS_3"
	TimelineMonths6   Timeline = "MONTHS_6"
	TimelineExploring Timeline = "EXPLORING"
)

// Source records how the lead reached us.
type Source string

const (
	SourceWebsite  Source = "WEBSITE"
	SourceReferral Source = "REFERRAL"
	SourceWalkIn   Source = "WALK_IN"
	SourceCall     Source = "CALL"
	SourceOther    Source = "OTHER"
)

// Status tracks the lead through the sales pipeline.
type Status string

const (
	StatusNew         Status = "NEW"
	StatusQualified   Status = "QUALIFIED"
	StatusContacted   Status = "CONTACTED"
	StatusVisited     Status = "VISITED"
	StatusNegotiation Status = "NEGOTIATION"
	StatusConverted   Status = "CONVERTED"
	StatusDropped     Status = "DROPPED"
)

var (
	Cities        = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}
	PropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}
	BHKs          = []BHK{BHKStudio, BHK1, BHK2, BHK3, BHK4}
	Purposes      = []Purpose{PurposeBuy, PurposeRent}
	Timelines     = []Timeline{TimelineImmediate, TimelineMonths3, TimelineMonths6, TimelineExploring}
	Sources       = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}
	Statuses      = []Status{StatusNew, StatusQualified, StatusContacted, StatusVisited, StatusNegotiation, StatusConverted, StatusDropped}
)

func memberOf[T ~string](values []T, s string) bool {
	for _, v := range values {
		if string(v) == s {
			return true
		}
	}
	return false
}

// RequiresBHK reports whether the property type makes the bhk field mandatory.
func (p PropertyType) RequiresBHK() bool {
	return p == PropertyApartment || p == PropertyVilla
}

// Buyer is a prospective property buyer tracked through the pipeline.
type Buyer struct {
	ID           string       `json:"id"`
	FullName     string       `json:"fullName"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"propertyType"`
	BHK          BHK          `json:"bhk,omitempty"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int64       `json:"budgetMin,omitempty"`
	BudgetMax    *int64       `json:"budgetMax,omitempty"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Status       Status       `json:"status"`
	Notes        string       `json:"notes,omitempty"`
	Tags         []string     `json:"tags"`
	OwnerID      string       `json:"ownerId"`
	OwnerName    string       `json:"ownerName,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// TagsString returns the persisted comma-joined form of the tag list.
func (b *Buyer) TagsString() string {
	return strings.Join(b.Tags, ",")
}

// BuyerInput is a candidate record before validation. Enum fields stay raw
// strings so CSV rows and JSON bodies share one shape; the validator rejects
// non-members.
type BuyerInput struct {
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	PropertyType string   `json:"propertyType"`
	BHK          string   `json:"bhk"`
	Purpose      string   `json:"purpose"`
	BudgetMin    *int64   `json:"budgetMin"`
	BudgetMax    *int64   `json:"budgetMax"`
	Timeline     string   `json:"timeline"`
	Source       string   `json:"source"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
}

// UpdateBuyerRequest carries the full record plus the updatedAt timestamp the
// client last observed, for stale-write detection.
type UpdateBuyerRequest struct {
	BuyerInput
	UpdatedAt string `json:"updatedAt"`
}
