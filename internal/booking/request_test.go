package booking

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

func validForm() Form {
	return Form{
		Date:          "2026-10-20",
		Time:          "10:00",
		Duration:      "30",
		Subject:       "Sync",
		AttendeeEmail: "a@b.com",
	}
}

func TestValidate_Valid(t *testing.T) {
	req, err := Validate(validForm(), testNow, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2026, 10, 20, 10, 30, 0, 0, time.UTC), req.End())
	assert.Equal(t, 30, req.DurationMinutes)
	assert.Equal(t, "Sync", req.Subject)
	assert.Equal(t, "a@b.com", req.AttendeeEmail)
}

func TestValidate_Location(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	req, err := Validate(validForm(), testNow, loc)
	require.NoError(t, err)
	assert.Equal(t, loc, req.Start.Location())
	assert.Equal(t, 10, req.Start.Hour())
	assert.Equal(t, time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC), req.Start.UTC())
}

func TestValidate_DurationBounds(t *testing.T) {
	tests := []struct {
		duration string
		wantErr  bool
	}{
		{"14", true},
		{"15", false},
		{"30", false},
		{"60", false},
		{"61", true},
		{"70", true},
		{"0", true},
		{"-30", true},
		{"thirty", true},
		{"", true},
		{"30.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			form := validForm()
			form.Duration = tt.duration

			_, err := Validate(form, testNow, time.UTC)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, FieldDuration, vErr.Field)
		})
	}
}

func TestValidate_EndIsStartPlusDuration(t *testing.T) {
	for d := MinDuration; d <= MaxDuration; d++ {
		form := validForm()
		form.Duration = strconv.Itoa(d)

		req, err := Validate(form, testNow, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(d)*time.Minute, req.End().Sub(req.Start), "duration %d", d)
	}
}

func TestValidate_InvalidFields(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Form)
		wantField string
	}{
		{"past date", func(f *Form) { f.Date = "2026-10-18" }, FieldDate},
		{"missing date", func(f *Form) { f.Date = "" }, FieldDate},
		{"malformed date", func(f *Form) { f.Date = "20/10/2026" }, FieldDate},
		{"bad time", func(f *Form) { f.Time = "25:00" }, FieldTime},
		{"missing time", func(f *Form) { f.Time = "" }, FieldTime},
		{"time with letters", func(f *Form) { f.Time = "ten" }, FieldTime},
		{"empty subject", func(f *Form) { f.Subject = "" }, FieldSubject},
		{"blank subject", func(f *Form) { f.Subject = "   " }, FieldSubject},
		{"bad email", func(f *Form) { f.AttendeeEmail = "not-an-email" }, FieldAttendee},
		{"two emails", func(f *Form) { f.AttendeeEmail = "a@b.com, c@d.com" }, FieldAttendee},
		{"display name", func(f *Form) { f.AttendeeEmail = "Alice <a@b.com>" }, FieldAttendee},
		{"no domain dot", func(f *Form) { f.AttendeeEmail = "a@localhost" }, FieldAttendee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.modify(&form)

			req, err := Validate(form, testNow, time.UTC)
			require.Error(t, err)
			assert.Equal(t, Request{}, req)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.NotEmpty(t, vErr.Message)
		})
	}
}

func TestValidate_TodayIsAllowed(t *testing.T) {
	form := validForm()
	form.Date = "2026-10-19"
	_, err := Validate(form, testNow, time.UTC)
	assert.NoError(t, err)
}

func TestValidate_TodayDependsOnLocation(t *testing.T) {
	// 23:30 UTC on the 19th is already the 20th in Tokyo.
	now := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	form := validForm()
	form.Date = "2026-10-19"

	_, err = Validate(form, now, time.UTC)
	assert.NoError(t, err)

	_, err = Validate(form, now, tokyo)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, FieldDate, vErr.Field)
}

func TestValidate_OptionalAttendeeAndTrimming(t *testing.T) {
	form := validForm()
	form.AttendeeEmail = "  "
	form.Subject = "  Sync  "
	form.Time = "09:15:00"

	req, err := Validate(form, testNow, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, req.AttendeeEmail)
	assert.Equal(t, "Sync", req.Subject)
	assert.Equal(t, 9, req.Start.Hour())
	assert.Equal(t, 15, req.Start.Minute())
}

func TestValidate_FirstErrorInFormOrder(t *testing.T) {
	form := Form{Date: "2020-01-01", Time: "x", Duration: "90", Subject: "", AttendeeEmail: "bad"}

	_, err := Validate(form, testNow, time.UTC)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, FieldDate, vErr.Field)

	_, errs := ValidateAll(form, testNow, time.UTC)
	require.Len(t, errs, 5)
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{FieldDate, FieldTime, FieldDuration, FieldSubject, FieldAttendee}, fields)
	assert.Equal(t, "must be today or later", errs.ByField(FieldDate))
	assert.Empty(t, errs.ByField("unknown"))
	assert.Contains(t, errs.Error(), "invalid duration")
}

func TestDefaultForm(t *testing.T) {
	form := DefaultForm(testNow, time.UTC)
	assert.Equal(t, "2026-10-19", form.Date)
	assert.Equal(t, "10:00", form.Time)
	assert.Equal(t, "30", form.Duration)
	assert.Equal(t, DefaultSubject, form.Subject)
	assert.Empty(t, form.AttendeeEmail)
}
