package details

// Section is one of the four collapsible blocks of the panel.
type Section int

const (
	SectionRequestHeaders Section = iota
	SectionRequestBody
	SectionResponseHeaders
	SectionResponseBody
)

var sectionTitles = [...]string{
	SectionRequestHeaders:  "Request Headers",
	SectionRequestBody:     "Request Body",
	SectionResponseHeaders: "Response Headers",
	SectionResponseBody:    "Response Body",
}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionTitles) {
		return "Section(?)"
	}
	return sectionTitles[s]
}

// Visibility holds one independent flag per section.
type Visibility struct {
	RequestHeaders  bool
	RequestBody     bool
	ResponseHeaders bool
	ResponseBody    bool
}

func DefaultVisibility() Visibility {
	return Visibility{ResponseBody: true}
}

func (v Visibility) Shown(s Section) bool {
	switch s {
	case SectionRequestHeaders:
		return v.RequestHeaders
	case SectionRequestBody:
		return v.RequestBody
	case SectionResponseHeaders:
		return v.ResponseHeaders
	case SectionResponseBody:
		return v.ResponseBody
	default:
		return false
	}
}

func (v *Visibility) Toggle(s Section) {
	switch s {
	case SectionRequestHeaders:
		v.RequestHeaders = !v.RequestHeaders
	case SectionRequestBody:
		v.RequestBody = !v.RequestBody
	case SectionResponseHeaders:
		v.ResponseHeaders = !v.ResponseHeaders
	case SectionResponseBody:
		v.ResponseBody = !v.ResponseBody
	}
}
