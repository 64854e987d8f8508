package util

import "strings"

const (
	// '전체보기' 접힘을 만들기 위한 제로폭 문자 개수
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
)

// 카카오톡 '전체보기'용 제로폭 문자를 채워 메시지를 확장. instruction 은 접힘 위, text 는 아래.
func ApplyKakaoSeeMorePadding(text, instruction string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	head := strings.TrimSpace(instruction)

	var b strings.Builder
	b.Grow(len(head) + KakaoSeeMorePadding*len(KakaoZeroWidthSpace) + len(text) + 1)
	b.WriteString(head)
	b.WriteString(strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding))
	if !strings.HasPrefix(text, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	return b.String()
}

// text 앞의 header 와 뒤따르는 줄바꿈을 제거.
func StripLeadingHeader(text, header string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(header) == "" {
		return text
	}
	rest, ok := strings.CutPrefix(text, header)
	if !ok {
		return text
	}
	for i := 0; i < 2; i++ {
		switch {
		case strings.HasPrefix(rest, "\r\n"):
			rest = rest[2:]
		case strings.HasPrefix(rest, "\n"):
			rest = rest[1:]
		}
	}
	return rest
}

// header(+suffix)를 접힘 위로 올리고 나머지는 접음.
// header 가 비어 있으면 fallback 을 보이는 줄로 사용.
func ApplySeeMoreWithHeader(text, header, fallback, suffix string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	instruction := strings.TrimSpace(header)
	if instruction == "" {
		instruction = strings.TrimSpace(fallback)
	} else {
		instruction += suffix
	}
	return ApplyKakaoSeeMorePadding(StripLeadingHeader(text, header), instruction)
}
