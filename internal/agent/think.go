package agent

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// segment is a piece of streamed content routed to text or reasoning.
type segment struct {
	reasoning bool
	text      string
}

// thinkSplitter separates <think>...</think> blocks from streamed content.
// Tags may be split across chunks.
type thinkSplitter struct {
	inThink bool
	buf     string
}

func (s *thinkSplitter) push(chunk string) []segment {
	s.buf += chunk
	var out []segment
	emit := func(text string) {
		if text == "" {
			return
		}
		if n := len(out); n > 0 && out[n-1].reasoning == s.inThink {
			out[n-1].text += text
			return
		}
		out = append(out, segment{reasoning: s.inThink, text: text})
	}

	for {
		tag := thinkOpen
		if s.inThink {
			tag = thinkClose
		}
		if idx := strings.Index(s.buf, tag); idx >= 0 {
			emit(s.buf[:idx])
			s.buf = s.buf[idx+len(tag):]
			s.inThink = !s.inThink
			continue
		}
		keep := partialSuffix(s.buf, tag)
		emit(s.buf[:len(s.buf)-keep])
		s.buf = s.buf[len(s.buf)-keep:]
		return out
	}
}

func (s *thinkSplitter) flush() []segment {
	if s.buf == "" {
		return nil
	}
	out := []segment{{reasoning: s.inThink, text: s.buf}}
	s.buf = ""
	return out
}

// partialSuffix returns the length of the longest suffix of s that is a
// proper prefix of tag.
func partialSuffix(s, tag string) int {
	for n := min(len(tag)-1, len(s)); n > 0; n-- {
		if strings.HasSuffix(s, tag[:n]) {
			return n
		}
	}
	return 0
}

func stripThink(s string) string {
	var sp thinkSplitter
	var b strings.Builder
	for _, seg := range append(sp.push(s), sp.flush()...) {
		if !seg.reasoning {
			b.WriteString(seg.text)
		}
	}
	return strings.TrimSpace(b.String())
}
