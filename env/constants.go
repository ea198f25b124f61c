package env

import "time"

const (
	GPIO17 = "GPIO17"
	GPIO20 = "GPIO20" // status LED
	GPIO27 = "GPIO27"

	StatusLed = GPIO20

	// ADS1115 inputs, wired in read priority order
	TemperatureInput = 0 // TMP36
	HumidityInput    = 1
	CO2Input         = 2
	SoundInput       = 3

	ADS1115Address uint16 = 0x48

	NodeID    = "node-01"
	Latitude  = 10.43079
	Longitude = -85.08499

	RegistrationURL = "https://vemat.onrender.com/api/geo"
	TelemetryURL    = "https://vemat.onrender.com/api/lecturas"

	DefaultProfile = "reference"

	ReportPeriod      = time.Second * 60
	RegistrationRetry = time.Second * 10
	ProbePeriod       = time.Second * 2
	HTTPTimeout       = time.Second * 30

	ADCOpenAttempts = 5
	ADCOpenRetry    = time.Second * 2

	LEDFlashDuration = time.Millisecond * 150
	LEDReadPulses    = 3

	// "YYYY-MM-DD HH:MM:SS", what the collection backend stores
	TimestampLayout = "2006-01-02 15:04:05"

	HistoryLength = 60 // one hour of reports
)

// an unset real-time clock comes up in 2000 on most boards
var ClockMinValid = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
