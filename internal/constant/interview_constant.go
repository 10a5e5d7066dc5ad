package constant

const (
	// StreamTopic is the in-process topic feeding the websocket hub.
	StreamTopic = "interview.stream"

	StreamTypeLeadingConditions = "leading_conditions"
	StreamTypeFinalized         = "finalized"
	StreamTypeEmergency         = "emergency"

	// ExplanationPromptV1 is filled with patient age, sex, the ranked
	// conditions and the emergency list, in that order.
	ExplanationPromptV1 = `You are helping a patient understand the result of an automated symptom assessment.

Patient: %d years old, %s.

Most likely conditions (probability from the assessment engine):
%s
%s
Write a short explanation in plain language:
- Describe each listed condition in one or two sentences.
- Do not add conditions that are not listed and do not change the probabilities.
- If emergencies are listed, start with a clear instruction to seek urgent care.
- End with a reminder that this is not a diagnosis and a clinician should be consulted.`

	ExplanationEmergencyLineV1 = "Flagged as possible emergencies: %s\n"
)
