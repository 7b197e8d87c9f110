package ai

import (
	"fmt"
	"strings"
)

// firstName extracts the first token of a display name, falling back to a
// neutral greeting target.
func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

// buildReplyPrompt assembles the prompt for a public reply. When the operator
// supplied custom instructions they lead the prompt and the built-in guidance
// is reduced to the context block.
func buildReplyPrompt(in ReplyInput) string {
	first := firstName(in.CommenterName)
	tone := in.VoiceTone
	if tone == "" {
		tone = "professional"
	}

	if in.CustomInstructions != "" {
		return fmt.Sprintf(`%s

---
CURRENT CONTEXT:
- Commenter name: %s (first name: %s)
- Their comment: %q
- Post topic: %s
- Your tone: %s

Now generate the public comment reply (under 15 words) following the instructions above.
Write only the reply text, nothing else.`,
			in.CustomInstructions, in.CommenterName, first, in.OriginalComment, in.PostTopic, tone)
	}

	return fmt.Sprintf(`You are replying to a LinkedIn comment on your post about %s.

The commenter (%s) wrote: %q

Write a friendly, engaging reply that:
1. Acknowledges their interest (they triggered a keyword)
2. Is warm and personal (use their first name: %s)
3. Hints at the value you'll provide: %s
4. Is 1-2 sentences max (under 15 words ideal)
5. Tone: %s

Do NOT be salesy or pushy. Be genuine and helpful.
Write only the reply text, nothing else.`,
		in.PostTopic, in.CommenterName, in.OriginalComment, first, in.CTAHint, tone)
}

// buildDMPrompt assembles the prompt for a direct message to a lead.
func buildDMPrompt(in DMInput) string {
	first := firstName(in.LeadName)

	if in.CustomInstructions != "" {
		var ctaHint string
		if in.CTAMessage != "" {
			ctaHint = fmt.Sprintf("\n- CTA message hint: %s", in.CTAMessage)
		}
		return fmt.Sprintf(`%s

---
CURRENT CONTEXT:
- Lead name: %s (first name: %s)
- Lead headline: %s
- Post topic they engaged with: %s
- CTA type: %s
- CTA value: %s%s

Now generate the DM following the instructions above.
Write only the message text, nothing else.`,
			in.CustomInstructions, in.LeadName, first, in.LeadHeadline, in.PostTopic, in.CTAType, in.CTAValue, ctaHint)
	}

	ctaInstruction := in.CTAMessage
	if ctaInstruction == "" {
		ctaInstruction = "Include this CTA naturally: " + in.CTAValue
	}

	return fmt.Sprintf(`Write a LinkedIn DM to %s (%s).

Context: They commented on your post about %s and showed interest.

Your goal: Send a helpful, non-pushy message that:
1. Thanks them for engaging
2. Provides immediate value
3. %s
4. Is conversational, not salesy
5. 3-5 sentences max

CTA type: %s
CTA: %s

Write only the message text, nothing else.`,
		in.LeadName, in.LeadHeadline, in.PostTopic, ctaInstruction, in.CTAType, in.CTAValue)
}

// buildCommentPrompt assembles the prompt for an insightful comment on a
// watched account's post. The last few sample comments, when present, anchor
// the style.
func buildCommentPrompt(in CommentInput) string {
	var samples string
	if len(in.SampleComments) > 0 {
		recent := in.SampleComments
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		var b strings.Builder
		b.WriteString("\n\nExamples of your commenting style:\n")
		for _, s := range recent {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
		samples = strings.TrimRight(b.String(), "\n")
	}

	var styleNote string
	if in.CommentStyle != "" {
		styleNote = fmt.Sprintf("\n6. Style notes: %s", in.CommentStyle)
	}

	return fmt.Sprintf(`You're commenting on a LinkedIn post as an expert in: %s.

Post by %s (%s):
%q

Write a thoughtful comment that:
1. Adds genuine value or insight
2. Shows expertise without being preachy
3. Is 2-4 sentences max
4. Sounds human, not AI-generated
5. Tone: %s%s

NEVER use generic phrases like "Great post!" or "Thanks for sharing!"%s

Write only the comment text, nothing else.`,
		strings.Join(in.Expertise, ", "), in.AuthorName, in.AuthorHeadline, in.PostContent, in.Tone, styleNote, samples)
}
