package app

// Status texts shown to the user.
const (
	StatusListening    = "Listening for command..."
	StatusProcessing   = "Processing audio..."
	StatusTranscribing = "Converting speech to text..."
	StatusTranslating  = "Translating text..."
	StatusSending      = "Sending command to robot..."
	StatusNotSent      = "Command processing complete (not sent)"
)

// Messages carried by terminal notifications.
const (
	MessageSent           = "Command sent successfully."
	MessageEmptyAudio     = "No audio captured"
	MessageUnintelligible = "Speech could not be understood"
)
