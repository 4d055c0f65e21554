package alert

import (
	"fmt"

	"shealert/internal/location"
)

const Plea = "Please help me immediately!"

// Message is the text sent to every contact for one alert.
func Message(timestamp string, fix location.Fix) string {
	return fmt.Sprintf("🚨 EMERGENCY ALERT!\nTime: %s\nLocation: %s\n%s\n%s",
		timestamp, fix.Address, fix.MapLink(), Plea)
}
