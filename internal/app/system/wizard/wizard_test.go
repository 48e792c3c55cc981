package wizard_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/system/wizard"
	"github.com/dalemusser/neurohub/internal/domain/models"
)

func kind(t *testing.T, slug string) models.Kind {
	t.Helper()
	k, ok := models.KindBySlug(slug)
	if !ok {
		t.Fatalf("kind %q missing", slug)
	}
	return k
}

func basicForm(title string) url.Values {
	return url.Values{
		"title":       {title},
		"description": {"A short guide for families."},
		"category":    {"Seizure First Aid"},
	}
}

func TestNext_EmptyTitleStaysOnStepOne(t *testing.T) {
	k := kind(t, "ebooklets")
	st := wizard.New(k)
	st.Apply(k, wizard.StepBasic, basicForm("   "))

	if st.Next(k) {
		t.Fatal("Next should be blocked")
	}
	if st.Step != wizard.StepBasic {
		t.Errorf("step = %d, want 1", st.Step)
	}
	if got := st.Errors.Get("title"); got != "Title is required." {
		t.Errorf("title error = %q", got)
	}
}

func TestNext_AdvancesExactlyOneStep(t *testing.T) {
	k := kind(t, "news")
	st := wizard.New(k)
	st.Apply(k, wizard.StepBasic, basicForm("Awareness Month"))

	if !st.Next(k) {
		t.Fatalf("Next blocked: %v", st.Errors)
	}
	if st.Step != wizard.StepDetails {
		t.Fatalf("step = %d, want 2", st.Step)
	}
	if len(st.Errors) != 0 {
		t.Errorf("errors should be cleared, got %v", st.Errors)
	}

	if !st.Next(k) {
		t.Fatalf("details blocked: %v", st.Errors)
	}
	if st.Step != wizard.StepMedia {
		t.Errorf("step = %d, want 3", st.Step)
	}
}

func TestBack_AlwaysAllowedAndFloorsAtOne(t *testing.T) {
	k := kind(t, "ebooklets")
	st := wizard.New(k)
	st.Step = wizard.StepMedia
	st.Values.Title = "" // invalid data must not block Back

	st.Back()
	if st.Step != wizard.StepDetails {
		t.Errorf("step = %d, want 2", st.Step)
	}
	st.Back()
	st.Back()
	if st.Step != wizard.StepBasic {
		t.Errorf("step = %d, want 1", st.Step)
	}
}

func TestApply_KeepsOtherStepsInput(t *testing.T) {
	k := kind(t, "ebooklets")
	st := wizard.New(k)
	st.Apply(k, wizard.StepBasic, basicForm("First Aid"))
	st.Apply(k, wizard.StepDetails, url.Values{
		"language":        {" EN "},
		"tags":            {"first aid, safety, First Aid"},
		"target_audience": {"Parents\nTeachers"},
		"pages":           {"24"},
	})

	if st.Values.Title != "First Aid" {
		t.Errorf("title lost: %q", st.Values.Title)
	}
	if st.Values.Language != "en" {
		t.Errorf("language = %q", st.Values.Language)
	}
	if got := strings.Join(st.Values.Tags, "|"); got != "first aid|safety" {
		t.Errorf("tags = %q", got)
	}
	if len(st.Values.TargetAudience) != 2 || st.Values.ExtraValue("pages") != "24" {
		t.Errorf("details = %+v", st.Values)
	}
	if st.Values.Authors == nil {
		t.Error("untouched list should stay non-nil")
	}
}

func TestValidateStep_DetailsRules(t *testing.T) {
	tests := []struct {
		name  string
		slug  string
		form  url.Values
		field string
		want  string
	}{
		{
			name:  "required list",
			slug:  "ebooklets",
			form:  url.Values{"language": {"en"}, "target_audience": {" , "}},
			field: "target_audience",
			want:  "Add at least one entry to Target audience.",
		},
		{
			name:  "numeric extra",
			slug:  "ebooklets",
			form:  url.Values{"language": {"en"}, "target_audience": {"Parents"}, "pages": {"twelve"}},
			field: "pages",
			want:  "Pages must be a number.",
		},
		{
			name:  "required extra",
			slug:  "training-programs",
			form:  url.Values{"language": {"en"}},
			field: "duration_hours",
			want:  "Duration (hours) is required.",
		},
		{
			name:  "date extra",
			slug:  "events",
			form:  url.Values{"language": {"en"}, "location": {"Lagos"}, "start_date": {"next week"}},
			field: "start_date",
			want:  "Start date must be a date in YYYY-MM-DD form.",
		},
		{
			name:  "end before start",
			slug:  "events",
			form:  url.Values{"language": {"en"}, "location": {"Lagos"}, "start_date": {"2026-11-10"}, "end_date": {"2026-11-09"}},
			field: "end_date",
			want:  "End date cannot be before the start date.",
		},
		{
			name:  "url extra",
			slug:  "news",
			form:  url.Values{"language": {"en"}, "source_url": {"example.org/story"}},
			field: "source_url",
			want:  "Source URL must be a full http:// or https:// address.",
		},
		{
			name:  "publication date",
			slug:  "news",
			form:  url.Values{"language": {"en"}, "publication_date": {"03/01/2026"}},
			field: "publication_date",
			want:  "Publication date must be a date in YYYY-MM-DD form.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := kind(t, tt.slug)
			st := wizard.New(k)
			st.Step = wizard.StepDetails
			st.Apply(k, wizard.StepDetails, tt.form)

			if st.Next(k) {
				t.Fatal("Next should be blocked")
			}
			if st.Step != wizard.StepDetails {
				t.Errorf("step = %d, want 2", st.Step)
			}
			if got := st.Errors.Get(tt.field); got != tt.want {
				t.Errorf("%s error = %q, want %q (all: %v)", tt.field, got, tt.want, st.Errors)
			}
		})
	}
}

func TestValidateStep_DocumentRequiredOnCreateOnly(t *testing.T) {
	k := kind(t, "ebooklets")

	st := wizard.New(k)
	if errs := wizard.ValidateStep(k, wizard.StepMedia, &st); errs.Get(wizard.InputDocument) == "" {
		t.Error("create without a document should fail")
	}

	edit := wizard.FromRecord(k, models.Record{Title: "x", FileURL: "http://api/media/x.pdf"})
	if errs := wizard.ValidateStep(k, wizard.StepMedia, &edit); len(errs) != 0 {
		t.Errorf("edit with an existing file should pass, got %v", errs)
	}

	news := kind(t, "news")
	ns := wizard.New(news)
	if errs := wizard.ValidateStep(news, wizard.StepMedia, &ns); len(errs) != 0 {
		t.Errorf("news has no document, got %v", errs)
	}
}

func TestSubmit(t *testing.T) {
	k := kind(t, "news")
	st := wizard.New(k)
	st.Apply(k, wizard.StepBasic, basicForm("Walk for Epilepsy"))

	if err := st.Submit(k); !errors.Is(err, wizard.ErrNotReviewStep) {
		t.Fatalf("Submit on step 1: err = %v", err)
	}

	for st.Step < wizard.StepReview {
		if !st.Next(k) {
			t.Fatalf("blocked on step %d: %v", st.Step, st.Errors)
		}
	}
	st.Apply(k, wizard.StepReview, url.Values{"status": {"published"}, "is_featured": {"on"}})
	if err := st.Submit(k); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if st.Values.Status != models.StatusPublished || !st.Values.IsFeatured {
		t.Errorf("review values = %+v", st.Values)
	}

	// Data fixed up behind the wizard's back is caught on submit.
	st.Values.Title = ""
	if err := st.Submit(k); !errors.Is(err, wizard.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if st.Step != wizard.StepBasic || !st.Errors.Has("title") {
		t.Errorf("step = %d errors = %v", st.Step, st.Errors)
	}
}

func TestSubmit_RejectsUnknownStatus(t *testing.T) {
	k := kind(t, "ebooklets")
	st := wizard.New(k)
	st.Step = wizard.StepReview
	st.Apply(k, wizard.StepReview, url.Values{"status": {"Under Review"}})
	if errs := wizard.ValidateStep(k, wizard.StepReview, &st); errs.Get("status") == "" {
		t.Error("ebooklets do not have an Under Review status")
	}
}

func TestFromRecord(t *testing.T) {
	k := kind(t, "events")
	rec := models.Record{
		Title:           "Purple Day",
		Status:          "published",
		PublicationDate: "2026-03-26T09:00:00Z",
		TargetAudience:  []string{"Everyone"},
		Extra:           map[string]string{"location": "Accra", "pages": "9"},
		ImageURL:        "http://api/media/purple.png",
	}
	st := wizard.FromRecord(k, rec)

	if st.Step != wizard.StepBasic {
		t.Errorf("edit starts at step %d", st.Step)
	}
	if st.Values.Status != models.StatusPublished || st.Values.PublicationDate != "2026-03-26" {
		t.Errorf("values = %+v", st.Values)
	}
	if st.Values.ExtraValue("location") != "Accra" || st.Values.ExtraValue("pages") != "" {
		t.Errorf("extras = %v", st.Values.Extra)
	}
	if !st.HasImage() || st.HasDocument() {
		t.Error("existing image should count, no document")
	}
	rec.TargetAudience[0] = "changed"
	if st.Values.TargetAudience[0] != "Everyone" {
		t.Error("FromRecord must copy slices")
	}
}

func TestFromRecord_KeepsUnlistedStatus(t *testing.T) {
	k := kind(t, "ebooklets")
	st := wizard.FromRecord(k, models.Record{Title: "Old booklet", Status: "Under Review"})

	if st.Values.Status != "Under Review" || st.KeptStatus != "Under Review" {
		t.Fatalf("status = %q kept = %q", st.Values.Status, st.KeptStatus)
	}
	opts := st.StatusOptions(k)
	if len(opts) != len(k.Statuses)+1 || opts[len(opts)-1] != "Under Review" {
		t.Errorf("options = %v", opts)
	}
	if len(k.Statuses) != 3 {
		t.Error("StatusOptions must not grow the kind's own list")
	}

	st.Step = wizard.StepReview
	st.Apply(k, wizard.StepReview, url.Values{"status": {"under review"}})
	if errs := wizard.ValidateStep(k, wizard.StepReview, &st); errs.Has("status") {
		t.Errorf("the kept status is valid: %v", errs)
	}
	if st.Values.Status != "Under Review" {
		t.Errorf("status = %q", st.Values.Status)
	}

	missing := wizard.FromRecord(k, models.Record{Title: "No status"})
	if missing.Values.Status != models.StatusDraft || missing.KeptStatus != "" {
		t.Errorf("missing status: %q kept %q", missing.Values.Status, missing.KeptStatus)
	}
}

func TestParseStep(t *testing.T) {
	for raw, want := range map[string]bool{"1": true, "4": true, "0": false, "5": false, "two": false} {
		if _, ok := wizard.ParseStep(raw); ok != want {
			t.Errorf("ParseStep(%q) ok = %v", raw, ok)
		}
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCheckImage(t *testing.T) {
	data := pngBytes(t, 640, 480)

	got, err := wizard.CheckImage("cover.PNG", bytes.NewReader(data), wizard.DefaultLimits)
	if err != nil {
		t.Fatalf("CheckImage: %v", err)
	}
	if got.ContentType != "image/png" || len(got.Thumb) == 0 {
		t.Errorf("accepted = %s thumb=%d bytes", got.ContentType, len(got.Thumb))
	}
	thumb, _, err := image.DecodeConfig(bytes.NewReader(got.Thumb))
	if err != nil || thumb.Width > wizard.ThumbSize || thumb.Height > wizard.ThumbSize {
		t.Errorf("thumbnail %dx%d err=%v", thumb.Width, thumb.Height, err)
	}
}

func TestCheckImage_Rejections(t *testing.T) {
	data := pngBytes(t, 16, 16)
	tests := []struct {
		name   string
		file   string
		data   []byte
		limits wizard.FileLimits
		want   string
	}{
		{"too large", "a.png", data, wizard.FileLimits{ImageMaxBytes: 10}, "The image is larger than 1 KB."},
		{"wrong extension", "a.pdf", data, wizard.DefaultLimits, "Images must be JPEG, PNG, WebP or GIF files."},
		{"not an image", "a.png", []byte("hello world"), wizard.DefaultLimits, "Images must be JPEG, PNG, WebP or GIF files."},
		{"truncated", "a.png", data[:40], wizard.DefaultLimits, "The image appears to be damaged."},
		{"empty", "a.png", nil, wizard.DefaultLimits, "The image file is empty."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wizard.CheckImage(tt.file, bytes.NewReader(tt.data), tt.limits)
			var fe *wizard.FileError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *FileError", err)
			}
			if fe.Field != wizard.InputImage || fe.Message != tt.want {
				t.Errorf("got %s %q, want %q", fe.Field, fe.Message, tt.want)
			}
		})
	}
}

func TestCheckDocument(t *testing.T) {
	pdf := []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")

	got, err := wizard.CheckDocument("guide.pdf", bytes.NewReader(pdf), wizard.DefaultLimits)
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if got.ContentType != "application/pdf" || got.Name != "guide.pdf" {
		t.Errorf("accepted = %+v", got)
	}

	if _, err := wizard.CheckDocument(`C:\Users\me\guide.doc`, strings.NewReader("legacy"), wizard.DefaultLimits); err != nil {
		t.Errorf(".doc should be accepted: %v", err)
	}

	for name, body := range map[string]string{
		"setup.exe": "MZ",
		"fake.pdf":  "just text",
		"big.pdf":   "%PDF-" + strings.Repeat("x", 64),
	} {
		limits := wizard.DefaultLimits
		if name == "big.pdf" {
			limits.DocumentMaxBytes = 32
		}
		_, err := wizard.CheckDocument(name, strings.NewReader(body), limits)
		var fe *wizard.FileError
		if !errors.As(err, &fe) || fe.Field != wizard.InputDocument {
			t.Errorf("%s: err = %v, want a document FileError", name, err)
		}
	}
}
