package notification

import (
	"strings"
	"testing"

	"github.com/perly101/purrfectpaw/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeSMS(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii passes through", "Your appointment is confirmed.", "Your appointment is confirmed."},
		{"smart quotes become plain", "Bring “Bantay’s” records", `Bring "Bantay's" records`},
		{"peso sign becomes PHP", "Total: ₱500.00", "Total: PHP 500.00"},
		{"dashes and ellipsis", "Mon–Fri — see you…", "Mon-Fri - see you..."},
		{"enye transliterated", "Dr. Muñoz, Peñafrancia branch", "Dr. Munoz, Penafrancia branch"},
		{"newlines and tabs collapse", "Line one\nLine\ttwo", "Line one Line two"},
		{"emoji dropped", "See you! 🐾🐶", "See you!"},
		{"whitespace runs collapse", "too   many    spaces", "too many spaces"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeSMS(tc.in))
		})
	}
}

func TestSanitizeSMS_CapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := SanitizeSMS(long)
	assert.Len(t, got, maxSMSLength)
}

func TestRenderTemplate_Fallbacks(t *testing.T) {
	cfg := config.DefaultMessagingConfig()

	event := AppointmentEvent{
		OwnerName: "Maria",
		Date:      "Mar 18, 2026",
		Time:      "10:30",
	}
	got := renderTemplate("Hi {owner_name}, {doctor_name} will see {pet_name} on {date} at {time}.", cfg, event)
	assert.Equal(t, "Hi Maria, Available Doctor will see your pet on Mar 18, 2026 at 10:30.", got)

	event.PetName = "Bantay"
	event.DoctorName = "Dr. Santos"
	got = renderTemplate("{doctor_name} / {pet_name}", cfg, event)
	assert.Equal(t, "Dr. Santos / Bantay", got)
}
