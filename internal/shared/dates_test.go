package shared

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tt := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "iso date", input: "2020-06-15", want: "2020-06-15 00:00:00"},
		{name: "iso date with time", input: "2020-06-15 13:45:10", want: "2020-06-15 13:45:10"},
		{name: "html datetime-local", input: "2020-06-15T08:05:00", want: "2020-06-15 08:05:00"},
		{name: "time without seconds", input: "2020-06-15T08:05", want: "2020-06-15 08:05:00"},
		{name: "underscores", input: "2019_02_28", want: "2019-02-28 00:00:00"},
		{name: "slashes", input: "2019/02/28", want: "2019-02-28 00:00:00"},
		{name: "month first", input: "12-25-2018", want: "2018-12-25 00:00:00"},
		{name: "month first underscores", input: "12_25_2018", want: "2018-12-25 00:00:00"},
		{name: "compact", input: "20210704", want: "2021-07-04 00:00:00"},
		{name: "year month", input: "2021-07", want: "2021-07-01 00:00:00"},
		{name: "leap day", input: "2020-02-29", want: "2020-02-29 00:00:00"},
		{name: "not a leap year", input: "2019-02-29", wantErr: true},
		{name: "year too early", input: "1850-01-01", wantErr: true},
		{name: "year too late", input: "2150-01-01", wantErr: true},
		{name: "impossible day", input: "2020-02-30", wantErr: true},
		{name: "trailing text", input: "2020-06-15 later", wantErr: true},
		{name: "bad month", input: "2020-13-01", wantErr: true},
		{name: "bad clock", input: "2020-01-01 25:00:00", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %v", tc.input, got)
				}
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tc.input, err)
			}
			if s := FormatDate(got); s != tc.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tc.input, s, tc.want)
			}
		})
	}
}

func TestDateFromFilename(t *testing.T) {
	tt := []struct {
		name     string
		filename string
		want     string
		found    bool
	}{
		{name: "camera style", filename: "IMG_20190704_101500.jpg", want: "2019-07-04 00:00:00", found: true},
		{name: "iso prefix", filename: "2018-03-02 birthday.png", want: "2018-03-02 00:00:00", found: true},
		{name: "month first", filename: "scan_03-02-2018.tif", want: "2018-03-02 00:00:00", found: true},
		{name: "skips invalid candidate", filename: "9999-99-99_2017-01-05.jpg", want: "2017-01-05 00:00:00", found: true},
		{name: "no date", filename: "DSC0001.JPG", found: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DateFromFilename(tc.filename)
			if ok != tc.found {
				t.Fatalf("DateFromFilename(%q) found = %v, want %v", tc.filename, ok, tc.found)
			}
			if ok && FormatDate(got) != tc.want {
				t.Errorf("DateFromFilename(%q) = %s, want %s", tc.filename, FormatDate(got), tc.want)
			}
		})
	}
}

func TestDateFromPath(t *testing.T) {
	got, ok := DateFromPath("trips/2016/08/lake")
	if !ok {
		t.Fatal("expected a date from year/month directories")
	}
	if FormatDate(got) != "2016-08-01 00:00:00" {
		t.Errorf("DateFromPath() = %s, want 2016-08-01 00:00:00", FormatDate(got))
	}

	if _, ok := DateFromPath("trips/lake"); ok {
		t.Error("expected no date from undated directories")
	}
}

func TestInRange(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	inside := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	before := time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)

	if !InRange(inside, start, end) {
		t.Error("expected date inside range")
	}
	if !InRange(start, start, end) || !InRange(end, start, end) {
		t.Error("expected bounds to be inclusive")
	}
	if InRange(before, start, end) {
		t.Error("expected date before start to be outside range")
	}
	if !InRange(before, time.Time{}, end) {
		t.Error("expected open start bound to accept earlier dates")
	}
}
