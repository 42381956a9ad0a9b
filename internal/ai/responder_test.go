package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResponder(t *testing.T) {
	Convey("Given a responder backed by a stub chat-completion endpoint", t, func() {
		stub := newStubEndpoint()
		Reset(stub.close)

		observer := &recordingObserver{}
		cfg := DefaultResponderConfig()
		cfg.Timeout = 2 * time.Second
		r := NewResponder(stub.completer(), nil, cfg, observer, zerolog.Nop())
		ctx := context.Background()

		Convey("When the endpoint answers with a decorated reply", func() {
			stub.content = `"Customer: **I really want a quiet washer.**"`
			reply := r.Respond(ctx, RespondInput{Message: "Can I help you?", Persona: PersonaCustomer, Scenario: "washer"})

			Convey("Then quotes, emphasis and the speaker label are stripped", func() {
				So(reply, ShouldEqual, "I really want a quiet washer.")
				So(observer.reasons(), ShouldBeEmpty)
			})

			Convey("Then the request carries the configured sampling parameters", func() {
				req := stub.lastRequest()
				So(req.Model, ShouldEqual, "stub-model")
				So(req.MaxTokens, ShouldEqual, 200)
				So(req.Temperature, ShouldAlmostEqual, 0.8)
				So(req.TopP, ShouldAlmostEqual, 0.9)
				So(req.Messages[0].Role, ShouldEqual, "system")
				So(req.Messages[0].Content, ShouldContainSubstring, "Scenario: washer")
				So(req.Messages[len(req.Messages)-1], ShouldResemble, Message{Role: "user", Content: "Can I help you?"})
				So(stub.headers[0].Get("Authorization"), ShouldEqual, "Bearer test-key")
			})
		})

		Convey("When more than sixteen prior turns are supplied", func() {
			stub.content = "Sure."
			history := make([]HistoryEntry, 20)
			for i := range history {
				history[i] = HistoryEntry{Content: fmt.Sprintf("turn %d", i)}
			}
			r.Respond(ctx, RespondInput{Message: "next", Persona: PersonaCustomer, History: history})

			Convey("Then only the last sixteen are sent, oldest first", func() {
				req := stub.lastRequest()
				So(len(req.Messages), ShouldEqual, 1+16+1)
				So(req.Messages[1].Content, ShouldEqual, "turn 4")
				So(req.Messages[16].Content, ShouldEqual, "turn 19")
			})

			Convey("Then untagged turns alternate roles ending with the assistant", func() {
				req := stub.lastRequest()
				So(req.Messages[16].Role, ShouldEqual, "assistant")
				So(req.Messages[15].Role, ShouldEqual, "user")
			})
		})

		Convey("When the endpoint returns a server error", func() {
			stub.status = http.StatusInternalServerError
			in := RespondInput{Message: "Do you have this in blue?", Persona: PersonaCustomer, Scenario: "tv"}
			first := r.Respond(ctx, in)
			second := r.Respond(ctx, in)

			Convey("Then a member of the customer pool is returned", func() {
				So(FallbackPool(PersonaCustomer), ShouldContain, first)
			})

			Convey("Then identical inputs give the identical fallback", func() {
				So(second, ShouldEqual, first)
			})

			Convey("Then the observer sees a status fallback per call", func() {
				So(observer.reasons(), ShouldResemble, []string{ReasonStatus, ReasonStatus})
			})
		})

		Convey("When the endpoint returns empty content", func() {
			stub.content = "   "
			reply := r.Respond(ctx, RespondInput{Message: "hello", Persona: PersonaAssistant})

			Convey("Then the assistant pool is used", func() {
				So(FallbackPool(PersonaAssistant), ShouldContain, reply)
				So(observer.reasons(), ShouldResemble, []string{ReasonEmpty})
			})
		})

		Convey("When the endpoint is slower than the timeout", func() {
			stub.delay = time.Second
			slow := NewResponder(stub.completer(), nil, ResponderConfig{Timeout: 30 * time.Millisecond}, observer, zerolog.Nop())
			reply := slow.Respond(ctx, RespondInput{Message: "hello", Persona: PersonaCustomer})

			Convey("Then the call is abandoned with a timeout fallback", func() {
				So(FallbackPool(PersonaCustomer), ShouldContain, reply)
				So(observer.reasons(), ShouldResemble, []string{ReasonTimeout})
			})
		})

		Convey("When the caller's context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			reply := r.Respond(canceled, RespondInput{Message: "hello", Persona: PersonaCustomer})

			Convey("Then a fallback is returned and reported as canceled", func() {
				So(FallbackPool(PersonaCustomer), ShouldContain, reply)
				So(observer.reasons(), ShouldResemble, []string{ReasonCanceled})
			})
		})

		Convey("When the message is blank", func() {
			reply := r.Respond(ctx, RespondInput{Message: "  ", Persona: PersonaCustomer})

			Convey("Then no request is made", func() {
				So(stub.calls(), ShouldEqual, 0)
				So(FallbackPool(PersonaCustomer), ShouldContain, reply)
			})
		})

		Convey("When the reply is longer than the ceiling", func() {
			stub.content = strings.Repeat("가나다 ", 200)
			reply := r.Respond(ctx, RespondInput{Message: "tell me everything", Persona: PersonaAssistant})

			Convey("Then it is cut at 300 runes plus an ellipsis", func() {
				So(strings.HasSuffix(reply, "..."), ShouldBeTrue)
				So(utf8.RuneCountInString(reply), ShouldBeLessThanOrEqualTo, 303)
				So(utf8.ValidString(reply), ShouldBeTrue)
			})
		})
	})
}

func TestFallbackReply_Deterministic(t *testing.T) {
	Convey("Given the same inputs", t, func() {
		a := fallbackReply(PersonaCustomer, "s", "m", 3)
		b := fallbackReply(PersonaCustomer, "s", "m", 3)

		Convey("Then the same pool entry is chosen", func() {
			So(a, ShouldEqual, b)
			So(FallbackPool(PersonaCustomer), ShouldContain, a)
		})
	})

	Convey("Given an unknown persona", t, func() {
		reply := fallbackReply(Persona("mystery"), "", "hi", 0)

		Convey("Then the customer pool is used", func() {
			So(FallbackPool(PersonaCustomer), ShouldContain, reply)
		})
	})
}

func TestCleanReply(t *testing.T) {
	Convey("CleanReply", t, func() {
		So(CleanReply("  'Hello there'  ", 300), ShouldEqual, "Hello there")
		So(CleanReply("Assistant: Try asking about budget.", 300), ShouldEqual, "Try asking about budget.")
		So(CleanReply("_*Fine.*_", 300), ShouldEqual, "Fine.")
		So(CleanReply("abcdef", 3), ShouldEqual, "abc...")
		So(CleanReply("ab   cdef", 4), ShouldEqual, "ab...")
		So(CleanReply(`""`, 300), ShouldEqual, "")

		Convey("keeps separate emphasis spans intact", func() {
			So(CleanReply("*sighs* I guess the cheaper one is fine *shrugs*", 300), ShouldEqual, "*sighs* I guess the cheaper one is fine *shrugs*")
			So(CleanReply("_maybe_ later, _maybe_ not", 300), ShouldEqual, "_maybe_ later, _maybe_ not")
			So(CleanReply(`"Fine," she said, "wrap it."`, 300), ShouldEqual, `"Fine," she said, "wrap it."`)
			So(CleanReply("'I'm just looking'", 300), ShouldEqual, "I'm just looking")
		})
	})
}
