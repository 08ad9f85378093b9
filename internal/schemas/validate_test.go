package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEnhanced = `{
	"processed_bullet": "Shipped the new onboarding flow, reducing drop-off by 40%",
	"experience_id": "e1",
	"match_confidence": 0.9,
	"category": "impact",
	"tags": ["onboarding"],
	"impact_score": 4,
	"occurred_at": null
}`

func TestValidateEnhancedLog(t *testing.T) {
	assert.NoError(t, Validate(EnhancedLog, validEnhanced))
}

func TestValidateEnhancedLogRejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown category",
			doc:  `{"processed_bullet":"x","match_confidence":0.9,"category":"misc","tags":[],"impact_score":3}`,
		},
		{
			name: "impact score out of range",
			doc:  `{"processed_bullet":"x","match_confidence":0.9,"category":"launch","tags":[],"impact_score":7}`,
		},
		{
			name: "confidence above one",
			doc:  `{"processed_bullet":"x","match_confidence":1.2,"category":"launch","tags":[],"impact_score":3}`,
		},
		{
			name: "missing processed bullet",
			doc:  `{"match_confidence":0.9,"category":"launch","tags":[],"impact_score":3}`,
		},
		{
			name: "empty bullet",
			doc:  `{"processed_bullet":"","match_confidence":0.9,"category":"launch","tags":[],"impact_score":3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(EnhancedLog, tt.doc)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Errors)
		})
	}
}

func TestValidateResumeResult(t *testing.T) {
	doc := `{
		"resume": {
			"name": "Demo User",
			"headline": "Engineer",
			"summary": "Builds things.",
			"contact": {"email": "demo@example.com"},
			"experience": [
				{"title": "Engineer", "organization": "Acme", "location": "Remote", "dates": "2020 - Present", "bullets": ["Did a thing"]}
			],
			"education": [
				{"degree": "BS", "school": "State", "dates": "2012 - 2016", "details": null}
			],
			"skills": ["Go"]
		},
		"tailoring_notes": ["Emphasized Go"],
		"match_score": 85,
		"suggestions": []
	}`
	assert.NoError(t, Validate(ResumeResult, doc))
}

func TestValidateResumeResultRejectsBadScore(t *testing.T) {
	doc := `{
		"resume": {"name":"x","headline":"y","summary":"z","experience":[],"skills":[]},
		"tailoring_notes": [],
		"match_score": 120,
		"suggestions": []
	}`
	err := Validate(ResumeResult, doc)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidateParsedResume(t *testing.T) {
	doc := `{
		"profile": {"full_name": "Demo User", "email": null, "headline": "Engineer", "summary": "s", "skills": ["Go"]},
		"experiences": [
			{"type": "job", "title": "Engineer", "organization": "Acme", "location": "Remote",
			 "start_date": "2020-03", "end_date": null, "is_current": true, "description": null,
			 "bullets": ["Built the platform"]}
		]
	}`
	assert.NoError(t, Validate(ParsedResume, doc))
}

func TestValidateParsedResumeRejectsBadDate(t *testing.T) {
	doc := `{
		"profile": {"full_name": "Demo User"},
		"experiences": [
			{"type": "job", "title": "Engineer", "organization": "Acme", "start_date": "March 2020"}
		]
	}`
	err := Validate(ParsedResume, doc)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidateUnknownSchema(t *testing.T) {
	err := Validate("nope", `{}`)
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
}

func TestValidateMalformedDocument(t *testing.T) {
	err := Validate(EnhancedLog, `{not json`)
	require.Error(t, err)
}
