package service

import (
	"bytes"
	"strings"
	"testing"
)

func TestMailTemplateRendersDetails(t *testing.T) {
	var buf bytes.Buffer
	err := mailTemplate.Execute(&buf, mailData{
		Title: "Appointment Status Update",
		Name:  "Jane Doe",
		Body:  "Your appointment status has been updated to: Confirmed.",
		Details: []string{
			"Date: 2025-03-10",
			"Time: 09:00-09:30",
			"Doctor: Dr. John Smith",
		},
	})
	if err != nil {
		t.Fatalf("template execution failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Jane Doe", "Confirmed", "09:00-09:30", "Dr. John Smith"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered mail missing %q", want)
		}
	}
}

func TestMailTemplateOmitsEmptyDetails(t *testing.T) {
	var buf bytes.Buffer
	err := mailTemplate.Execute(&buf, mailData{
		Title: "Password Reset Request",
		Name:  "user@example.com",
		Body:  "Your one-time password is: 123456.",
	})
	if err != nil {
		t.Fatalf("template execution failed: %v", err)
	}

	if strings.Contains(buf.String(), "Appointment Details") {
		t.Error("rendered mail contains details section with no details set")
	}
}
