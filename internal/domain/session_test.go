package domain_test

import (
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateAnswers(t *testing.T) {
	t.Parallel()

	text := domain.ProcedureStep{StepID: uuid.New(), Title: "Describe", Type: domain.StepTypeText, IsRequired: true}
	photo := domain.ProcedureStep{StepID: uuid.New(), Title: "Photo", Type: domain.StepTypePhoto, IsRequired: true}
	checklist := domain.ProcedureStep{StepID: uuid.New(), Title: "Check", Type: domain.StepTypeChecklist, IsRequired: true, ChecklistItems: []string{"box", "manual"}}
	rating := domain.ProcedureStep{StepID: uuid.New(), Title: "Rate", Type: domain.StepTypeRating}
	steps := []domain.ProcedureStep{text, photo, checklist, rating}

	five, zero := 5, 0
	valid := []domain.StepAnswer{
		{StepID: text.StepID, Text: "Works well"},
		{StepID: photo.StepID, MediaURLs: []string{"https://cdn.example.com/p.jpg"}},
		{StepID: checklist.StepID, CheckedItems: []string{"manual", "box"}},
	}
	assert.NoError(t, domain.ValidateAnswers(steps, valid))
	assert.NoError(t, domain.ValidateAnswers(steps, append(valid, domain.StepAnswer{StepID: rating.StepID, Rating: &five})))

	replace := func(i int, a domain.StepAnswer) []domain.StepAnswer {
		out := append([]domain.StepAnswer(nil), valid...)
		out[i] = a
		return out
	}
	cases := map[string][]domain.StepAnswer{
		"missing required":  valid[:2],
		"blank text":        replace(0, domain.StepAnswer{StepID: text.StepID, Text: "  "}),
		"no media":          replace(1, domain.StepAnswer{StepID: photo.StepID}),
		"bad media url":     replace(1, domain.StepAnswer{StepID: photo.StepID, MediaURLs: []string{"ftp://x/y"}}),
		"partial checklist": replace(2, domain.StepAnswer{StepID: checklist.StepID, CheckedItems: []string{"box"}}),
		"unknown item":      replace(2, domain.StepAnswer{StepID: checklist.StepID, CheckedItems: []string{"box", "cable"}}),
		"rating range":      append(valid, domain.StepAnswer{StepID: rating.StepID, Rating: &zero}),
		"unknown step":      append(valid, domain.StepAnswer{StepID: uuid.New(), Text: "?"}),
		"answered twice":    append(valid, valid[0]),
	}
	for name, answers := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, domain.ValidateAnswers(steps, answers), domain.ErrInvalidInput)
		})
	}
}

func TestValidationHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "garden-tools", domain.Slugify("  Garden & Tools! "))
	assert.Equal(t, "user@example.com", domain.NormalizeEmail(" User@Example.COM "))
	assert.NoError(t, domain.ValidateEmail("user@example.com"))
	assert.ErrorIs(t, domain.ValidateEmail("Jane <user@example.com>"), domain.ErrInvalidInput)

	assert.NoError(t, domain.ValidatePassword("s3cretpass"))
	assert.ErrorIs(t, domain.ValidatePassword("short1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.ValidatePassword("lettersonly"), domain.ErrInvalidInput)

	assert.True(t, domain.IsCountryCode(" fr "))
	assert.False(t, domain.IsCountryCode("F1"))

	assert.NoError(t, domain.ValidateMoney("price", money("12.50"), false))
	assert.ErrorIs(t, domain.ValidateMoney("price", money("1.234"), false), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.ValidateMoney("price", money("0"), false), domain.ErrInvalidInput)
	assert.NoError(t, domain.ValidateMoney("bonus", money("0"), true))

	limit, offset := domain.NormalizePage(0, -3)
	assert.Equal(t, domain.DefaultPageLimit, limit)
	assert.Zero(t, offset)
	limit, _ = domain.NormalizePage(1000, 0)
	assert.Equal(t, domain.MaxPageLimit, limit)

	assert.Equal(t, int64(1999), domain.ToMinorUnits(money("19.99")))
	assert.Equal(t, domain.RoleSeller, domain.NormalizeRole(" seller"))
	assert.Empty(t, domain.NormalizeRole("root"))
}
