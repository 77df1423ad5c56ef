package extract

import (
	"reflect"
	"testing"
)

func TestCompany(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Senior AI Engineer at OpenLabs", want: "OpenLabs"},
		{title: "Engineer at Foo at Bar", want: "Bar"},
		{title: "Globex - Backend Developer", want: "Globex"},
		{title: "Backend Developer", want: UnknownCompany},
		{title: "Developer at ", want: UnknownCompany},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Company(tt.title); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    string
	}{
		{name: "city state", snippet: "Hiring in San Francisco, CA for a new team", want: "San Francisco, CA"},
		{name: "city country", snippet: "office based in Berlin, Germany.", want: "Berlin, Germany"},
		{name: "remote phrase", snippet: "this role is fully remote.", want: "remote"},
		{name: "work from home", snippet: "you can work from home twice a week", want: "work from home"},
		{name: "major city lowercase", snippet: "team located in seattle downtown", want: "seattle"},
		{name: "acronym without comma is not a state", snippet: "Join the Acme IT team in Boston", want: "Boston"},
		{name: "lowercase city state is not matched", snippet: "based in portland, or nearby", want: NoLocation},
		{name: "nothing", snippet: "great benefits and snacks", want: NoLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Location(tt.snippet); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		snippet string
		want    string
	}{
		{snippet: "Posted 3 days ago by recruiter", want: "3 days ago"},
		{snippet: "1 hour ago - apply now", want: "1 hour ago"},
		{snippet: "2 Weeks ago", want: "2 Weeks ago"},
		{snippet: "Posted 01/15/2024", want: "Posted 01/15/2024"},
		{snippet: "listed on 2024-01-15", want: "2024-01-15"},
		{snippet: "recently", want: NoDate},
	}

	for _, tt := range tests {
		t.Run(tt.snippet, func(t *testing.T) {
			if got := Date(tt.snippet); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSalaryRange(t *testing.T) {
	tests := []struct {
		snippet string
		want    string
	}{
		{snippet: "Pay: $140,000-$160,000 per year", want: "$140,000-$160,000"},
		{snippet: "salary $120k - $150k plus equity", want: "$120k - $150k"},
		{snippet: "up to $95,000", want: "$95,000"},
		{snippet: "comp $150000 to 180000", want: "$150000 to 180000"},
		{snippet: "5 years of experience", want: NoSalary},
	}

	for _, tt := range tests {
		t.Run(tt.snippet, func(t *testing.T) {
			if got := SalaryRange(tt.snippet); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJobTypePriority(t *testing.T) {
	tests := []struct {
		snippet string
		want    string
	}{
		{snippet: "Remote contract role, 6 months", want: Contract},
		{snippet: "Permanent position, remote friendly", want: FullTime},
		{snippet: "part-time contractor wanted", want: PartTime},
		{snippet: "WFH available", want: Remote},
		{snippet: "no keywords at all", want: FullTime},
	}

	for _, tt := range tests {
		t.Run(tt.snippet, func(t *testing.T) {
			if got := JobType(tt.snippet); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSkills(t *testing.T) {
	got := Skills("5 years of experience with Python and AWS")
	want := []string{"python", "aws"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := Skills(""); len(got) != 0 {
		t.Fatalf("expected no skills, got %v", got)
	}

	// substring semantics: "javascript" also contains "java"
	got = Skills("JavaScript and Docker")
	want = []string{"javascript", "java", "docker"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExperienceYears(t *testing.T) {
	tests := []struct {
		description string
		want        int
	}{
		{description: "5 years of experience with python and aws", want: 5},
		{description: "Requires 7+ years of experience", want: 7},
		{description: "Looking for a senior Go engineer with 5+ years experience...", want: DefaultExperienceYears},
		{description: "10 years of relevant experience", want: 10},
		{description: "at least 4 years in the field", want: 4},
		{description: "2 years of backend development experience", want: 2},
		{description: "no requirement stated", want: DefaultExperienceYears},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := ExperienceYears(tt.description); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
