package failure

import (
	"net/http"
	"runtime/debug"
	"strings"
)

const (
	// GenericMessage is the only text an Unclassified failure ever exposes.
	GenericMessage = "internal error, please contact an administrator"

	// EmptyViolationMessage replaces an aggregated violation message that
	// came out empty (no violations, or only blank labels and messages).
	EmptyViolationMessage = "invalid request parameters"

	violationSep = ","
)

// Response is the structured result of translating a Failure. Status doubles
// as the HTTP status line and the envelope's integer code.
type Response struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
}

// rule pairs a status code with the message builder for one category.
type rule struct {
	status int
	build  func(t *Translator, f Failure) string
}

// rules is fixed at init and never written afterwards. Status 405 for both
// auth categories is kept for client compatibility.
var rules = [numCategories]rule{
	Unclassified:   {http.StatusInternalServerError, (*Translator).unclassified},
	ParamViolation: {http.StatusBadRequest, (*Translator).paramViolation},
	BodyViolation:  {http.StatusBadRequest, (*Translator).bodyViolation},
	Authentication: {http.StatusMethodNotAllowed, (*Translator).authentication},
	Authorization:  {http.StatusMethodNotAllowed, (*Translator).authorization},
}

// Translator maps failures to responses. It holds no mutable state and is
// safe for concurrent use as long as its Recorder is.
type Translator struct {
	rec Recorder
}

// New returns a Translator that records diagnostics to rec. A nil rec
// discards them.
func New(rec Recorder) *Translator {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Translator{rec: rec}
}

// WithRecorder returns a copy of t that records to rec, typically a
// request-scoped logger.
func (t *Translator) WithRecorder(rec Recorder) *Translator {
	return New(rec)
}

// Translate maps f to exactly one Response. More specific categories are
// matched first; anything else, nil included, falls to the Unclassified arm.
func (t *Translator) Translate(f Failure) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			t.recordPanic(r)
			resp = Response{Status: http.StatusInternalServerError, Message: GenericMessage}
		}
	}()

	switch f.(type) {
	case *ParamViolationFailure:
		return t.apply(ParamViolation, f)
	case *BodyViolationFailure:
		return t.apply(BodyViolation, f)
	case *AuthenticationFailure:
		return t.apply(Authentication, f)
	case *AuthorizationFailure:
		return t.apply(Authorization, f)
	default:
		return t.apply(Unclassified, f)
	}
}

// recordPanic logs a panic raised while building a response. A Recorder that
// panics as well is ignored.
func (t *Translator) recordPanic(v any) {
	defer func() { _ = recover() }()
	t.rec.Record(SeverityError, "failure translation panicked", &PanicError{Value: v, Stack: debug.Stack()})
}

// TranslateError classifies err and translates the result.
func (t *Translator) TranslateError(err error) Response {
	return t.Translate(Classify(err))
}

// StatusOf reports the status code the rule for c produces.
func StatusOf(c Category) int {
	if c < 0 || c >= numCategories {
		c = Unclassified
	}
	return rules[c].status
}

func (t *Translator) apply(c Category, f Failure) Response {
	r := rules[c]
	return Response{Status: r.status, Message: r.build(t, f)}
}

func (t *Translator) unclassified(f Failure) string {
	var err error = f
	if uf, ok := f.(*UnclassifiedFailure); ok && uf != nil && uf.Err != nil {
		err = uf.Err
	}
	t.rec.Record(SeverityError, "internal error, request aborted", err)
	return GenericMessage
}

func (t *Translator) paramViolation(f Failure) string {
	pv, _ := f.(*ParamViolationFailure)
	if pv == nil {
		return EmptyViolationMessage
	}
	msg := joinViolations(pv.Violations, func(v FieldViolation) string { return pathLabel(v.Path) })
	t.rec.Record(SeverityError, msg, nil)
	return msg
}

func (t *Translator) bodyViolation(f Failure) string {
	bv, _ := f.(*BodyViolationFailure)
	if bv == nil {
		return EmptyViolationMessage
	}
	msg := joinViolations(bv.Violations, func(v FieldViolation) string { return v.Field })
	t.rec.Record(SeverityError, msg, nil)
	return msg
}

func (t *Translator) authentication(f Failure) string {
	msg := f.Error()
	t.rec.Record(SeverityError, "authentication failed: "+msg, nil)
	return msg
}

func (t *Translator) authorization(f Failure) string {
	msg := f.Error()
	t.rec.Record(SeverityError, "authorization failed: "+msg, nil)
	return msg
}

// joinViolations concatenates label+message for each violation with ","
// between entries. Order follows the slice.
func joinViolations(vs []FieldViolation, label func(FieldViolation) string) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		if s := label(v) + v.Message; s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return EmptyViolationMessage
	}
	return strings.Join(parts, violationSep)
}

// pathLabel returns the segment after the method/parameter root of a dotted
// path ("GetMenu.id" -> "id"). Paths with fewer than two segments, or an
// empty second segment, are returned whole.
func pathLabel(path string) string {
	segs := strings.Split(path, ".")
	if len(segs) < 2 || segs[1] == "" {
		return path
	}
	return segs[1]
}
