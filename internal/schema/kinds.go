// internal/schema/kinds.go
package schema

import "intake-reconciler/internal/lifecycle"

// Kind identifiers for the built-in intake forms.
const (
	KindInfoRequest      = "info_request"
	KindTechReadiness    = "tech_readiness"
	KindServiceAgreement = "service_agreement"
	KindClientFeedback   = "client_feedback"
)

// DefaultKinds returns the four built-in intake form definitions. Every kind
// keys on the submitter's email address.
func DefaultKinds() []KindDefinition {
	return []KindDefinition{
		{
			KindID:          KindInfoRequest,
			KeyField:        "email",
			ResultingStatus: string(lifecycle.StatusLead),
			Mappings: []FieldMapping{
				{SourceField: "email", Type: TypeText, Required: true},
				{SourceField: "first_name", Attribute: "first_name", Type: TypeText, Required: true},
				{SourceField: "last_name", Attribute: "last_name", Type: TypeText, Required: true},
				{SourceField: "phone", Attribute: "phone", Type: TypeText},
				{SourceField: "challenges", Attribute: "challenges", Type: TypeMultiSelect},
				{SourceField: "referral_source", Attribute: "referral_source", Type: TypeSelect},
				{SourceField: "preferred_contact", Attribute: "preferred_contact", Type: TypeSelect},
			},
		},
		{
			KindID:          KindTechReadiness,
			KeyField:        "email",
			ResultingStatus: string(lifecycle.StatusAssessed),
			Mappings: []FieldMapping{
				{SourceField: "email", Type: TypeText, Required: true},
				{SourceField: "smartphone", Attribute: "smartphone", Type: TypeText},
				{SourceField: "computer", Attribute: "computer", Type: TypeText},
				{SourceField: "tablet", Attribute: "tablet", Type: TypeText},
				{SourceField: "internet", Attribute: "internet_provider", Type: TypeText},
				{SourceField: "comfort_calls", Attribute: "comfort_phone_calls", Type: TypeNumber},
				{SourceField: "comfort_texts", Attribute: "comfort_text_messages", Type: TypeNumber},
				{SourceField: "comfort_email", Attribute: "comfort_email", Type: TypeNumber},
				{SourceField: "comfort_internet", Attribute: "comfort_internet_browsing", Type: TypeNumber},
				{SourceField: "comfort_photos", Attribute: "comfort_taking_photos", Type: TypeNumber},
				{SourceField: "comfort_apps", Attribute: "comfort_using_apps", Type: TypeNumber},
				{SourceField: "comfort_banking", Attribute: "comfort_online_banking", Type: TypeNumber},
				{SourceField: "comfort_video", Attribute: "comfort_video_calls", Type: TypeNumber},
				{SourceField: "learning_goals", Attribute: "learning_goals", Type: TypeText},
				{SourceField: "tech_frustrations", Attribute: "tech_frustrations", Type: TypeText},
				{SourceField: "current_support", Attribute: "current_support", Type: TypeText},
				{SourceField: "learning_style", Attribute: "learning_style", Type: TypeMultiSelect},
			},
		},
		{
			KindID:          KindServiceAgreement,
			KeyField:        "email",
			ResultingStatus: string(lifecycle.StatusActive),
			Mappings: []FieldMapping{
				{SourceField: "email", Type: TypeText, Required: true},
				{SourceField: "street_address", Attribute: "street_address", Type: TypeText, Required: true},
				{SourceField: "city", Attribute: "city", Type: TypeText},
				{SourceField: "state", Attribute: "state", Type: TypeSelect},
				{SourceField: "zip_code", Attribute: "zip_code", Type: TypeNumber},
				{SourceField: "emergency_contact_name", Attribute: "emergency_contact_name", Type: TypeText},
				{SourceField: "emergency_contact_phone", Attribute: "emergency_contact_phone", Type: TypeText},
				{SourceField: "emergency_relationship", Attribute: "emergency_relationship", Type: TypeText},
				{SourceField: "service_start_date", Attribute: "service_start_date", Type: TypeDate},
				{SourceField: "preferred_contact_method", Attribute: "preferred_contact", Type: TypeSelect},
				{SourceField: "preferred_contact_times", Attribute: "preferred_contact_times", Type: TypeText},
			},
		},
		{
			KindID:          KindClientFeedback,
			KeyField:        "email",
			ResultingStatus: string(lifecycle.StatusFeedback),
			Mappings: []FieldMapping{
				{SourceField: "email", Type: TypeText, Required: true},
				{SourceField: "service_date", Attribute: "last_session_date", Type: TypeDate},
				{SourceField: "overall_rating", Attribute: "overall_rating", Type: TypeNumber},
				{SourceField: "confidence_before", Attribute: "confidence_before", Type: TypeNumber},
				{SourceField: "confidence_after", Attribute: "confidence_after", Type: TypeNumber},
				{SourceField: "would_recommend", Attribute: "would_recommend", Type: TypeSelect},
				{SourceField: "most_valuable_skill", Attribute: "most_valuable_skill", Type: TypeText},
				{SourceField: "additional_comments", Attribute: "feedback_comments", Type: TypeText},
				{SourceField: "additional_services", Attribute: "suggested_services", Type: TypeText},
				{SourceField: "referral_partners", Attribute: "referral_partners", Type: TypeText},
			},
		},
	}
}

// Default builds a Registry from the built-in kinds. It panics on a
// validation failure, which can only mean a broken build.
func Default() *Registry {
	reg, err := NewRegistry(DefaultKinds())
	if err != nil {
		panic(err)
	}
	return reg
}
