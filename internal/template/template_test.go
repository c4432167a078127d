package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nsa-scheduler/internal/common/errors"
)

const emailDoc = `<template>
  <subject>Your appointment at _dealer_name</subject>
  <body>Hi _customer_firstname, your next service is on _appt_date at _appt_start_time.</body>
  <date_format>EEEE, MMMM dd, yyyy#_appt_date</date_format>
  <date_format>hh:mm a#_appt_start_time</date_format>
</template>`

const textDoc = `<template>
  <body>Hi _customer_firstname, appt _appt_date</body>
  <date_format>MMM dd#_appt_date</date_format>
</template>`

func testBindings() map[string]interface{} {
	return map[string]interface{}{
		"_customer_firstname": "John",
		"_dealer_name":        "Sample Dealer",
		"_appt_date":          time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC),
		"_appt_start_time":    time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestParseAndRender_Email(t *testing.T) {
	tmpl, err := Parse([]byte(emailDoc), ShapeEmail)
	require.NoError(t, err)

	rendered, err := tmpl.Render(testBindings())
	require.NoError(t, err)

	assert.Equal(t, "Your appointment at Sample Dealer", rendered.Subject)
	assert.Equal(t,
		"Hi John, your next service is on Monday, January 15, 2024 at 09:30 AM.",
		rendered.Body,
	)
}

func TestParseAndRender_Text(t *testing.T) {
	tmpl, err := Parse([]byte(textDoc), ShapeText)
	require.NoError(t, err)

	rendered, err := tmpl.Render(map[string]interface{}{
		"_customer_firstname": "John",
		"_appt_date":          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Empty(t, rendered.Subject)
	assert.Equal(t, "Hi John, appt Jan 15", rendered.Body)
}

func TestRender_MissingVariable(t *testing.T) {
	tmpl, err := Parse([]byte(textDoc), ShapeText)
	require.NoError(t, err)

	_, err = tmpl.Render(map[string]interface{}{
		"_appt_date": time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMissingVariable))
	assert.Contains(t, err.Error(), "no binding")

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, "_customer_firstname", stdErr.Metadata["placeholder"])
}

func TestRender_DirectiveOnNonTimestamp(t *testing.T) {
	tmpl, err := Parse([]byte(textDoc), ShapeText)
	require.NoError(t, err)

	_, err = tmpl.Render(map[string]interface{}{
		"_customer_firstname": "John",
		"_appt_date":          "2024-01-15",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestRender_PrefixVariableDoesNotPartialMatch(t *testing.T) {
	doc := `<template><body>_appt_date_long and _appt_date</body></template>`
	tmpl, err := Parse([]byte(doc), ShapeText)
	require.NoError(t, err)

	rendered, err := tmpl.Render(map[string]interface{}{
		"_appt_date":      "short",
		"_appt_date_long": "long",
	})
	require.NoError(t, err)
	assert.Equal(t, "long and short", rendered.Body)
}

func TestRender_IsPureAndRepeatable(t *testing.T) {
	tmpl, err := Parse([]byte(emailDoc), ShapeEmail)
	require.NoError(t, err)

	first, err := tmpl.Render(testBindings())
	require.NoError(t, err)
	second, err := tmpl.Render(testBindings())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		shape Shape
	}{
		{
			name:  "missing body",
			doc:   `<template><subject>s</subject></template>`,
			shape: ShapeEmail,
		},
		{
			name:  "email without subject",
			doc:   `<template><body>_x</body></template>`,
			shape: ShapeEmail,
		},
		{
			name:  "directive references unknown placeholder",
			doc:   `<template><body>hello _a</body><date_format>MMM dd#_missing</date_format></template>`,
			shape: ShapeText,
		},
		{
			name:  "malformed directive",
			doc:   `<template><body>hello _a</body><date_format>MMM dd</date_format></template>`,
			shape: ShapeText,
		},
		{
			name:  "not xml",
			doc:   `subject: hello`,
			shape: ShapeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.shape)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
		})
	}
}

func TestParse_PlaceholderScan(t *testing.T) {
	doc := `<template><body>a_b _x9 _ bare_trailing _end</body></template>`
	tmpl, err := Parse([]byte(doc), ShapeText)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"_b", "_x9", "_trailing", "_end"}, tmpl.Placeholders())
}
