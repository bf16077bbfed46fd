package entity

// Amount fields of the funding form
const (
	FieldRegistrationFee = "registration_fee"
	FieldHotelTotal      = "hotel_total"
	FieldFlightTotal     = "flight_total"
	FieldMileageTotal    = "mileage_total"
	FieldMealsTotal      = "meals_total"
)

// Flag fields of the funding form
const (
	FieldPayAheadRegistration = "pay_ahead_registration"
	FieldPayAheadHotel        = "pay_ahead_hotel"
	FieldPayAheadFlight       = "pay_ahead_flight"
	FieldMileageNeeded        = "mileage_needed"
	FieldMealsNeeded          = "meals_needed"
)

// Descriptive fields shown to approvers
const (
	FieldEventName     = "event_name"
	FieldEventLocation = "event_location"
	FieldEventStart    = "event_start"
	FieldEventEnd      = "event_end"
	FieldPurpose       = "purpose"
	FieldDepartment    = "department"
)

// Role names resolved through the role directory
const (
	RoleRequester = "requester"
	RoleApprover  = "approver"
	RoleDisburser = "disburser"
)

// SummaryFields lists the descriptive fields, in display order
var SummaryFields = []struct {
	Key   string
	Label string
}{
	{FieldEventName, "Event"},
	{FieldEventLocation, "Location"},
	{FieldEventStart, "Start date"},
	{FieldEventEnd, "End date"},
	{FieldDepartment, "Department"},
	{FieldPurpose, "Purpose"},
}
