package ai

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

var customerFallbacks = []string{
	"Hmm, I'm not sure yet. Can you tell me a bit more about it?",
	"That sounds interesting, but how is it different from the cheaper one?",
	"I need to think about the price. Is there any discount right now?",
	"Okay. What would you recommend for someone like me?",
	"Does it come with a warranty? I had trouble with my last one.",
}

var assistantFallbacks = []string{
	"Start by asking an open question about how the customer plans to use the product.",
	"Restate the customer's concern in your own words before you answer it.",
	"Link one feature to a benefit the customer already mentioned.",
	"If price comes up, explain total value first, then mention current offers.",
	"Close by suggesting a clear next step, like a demo or checking stock.",
}

// FallbackPool returns a copy of the fixed in-character lines for a persona
func FallbackPool(persona Persona) []string {
	return append([]string(nil), fallbackPool(persona)...)
}

func fallbackPool(persona Persona) []string {
	if persona.Normalize() == PersonaAssistant {
		return assistantFallbacks
	}
	return customerFallbacks
}

// fallbackReply picks a pool entry from a hash of the inputs so identical
// calls always get the identical line.
func fallbackReply(persona Persona, scenario, message string, historyLen int) string {
	pool := fallbackPool(persona)
	key := string(persona.Normalize()) + "\x00" + scenario + "\x00" + message + "\x00" + strconv.Itoa(historyLen)
	return pool[xxhash.Sum64String(key)%uint64(len(pool))]
}
