package syllabus

// NotListed marks a schema field that was not found in the source text.
const NotListed = "Not Listed"

// LectureType classifies a recurring meeting.
type LectureType string

const (
	TypeLecture    LectureType = "lecture"
	TypeLab        LectureType = "lab"
	TypeDiscussion LectureType = "discussion"
)

// Lecture is one weekly meeting. Day uses Monday=0 .. Sunday=6.
type Lecture struct {
	Day       int         `json:"day" yaml:"day"`
	StartTime string      `json:"start_time" yaml:"start_time"`
	EndTime   string      `json:"end_time" yaml:"end_time"`
	StartDate string      `json:"start_date" yaml:"start_date"`
	EndDate   string      `json:"end_date" yaml:"end_date"`
	Location  string      `json:"location" yaml:"location"`
	Type      LectureType `json:"type" yaml:"type"`
}

// Assignment is a dated deliverable.
type Assignment struct {
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date" yaml:"date"`
	TimeDue     string `json:"time_due" yaml:"time_due"`
	Confidence  int    `json:"confidence" yaml:"confidence"`
}

// Exam is a scheduled assessment. EndTime is only known when the source
// gives a time range (prelim blocks); it is not part of any dedup key.
type Exam struct {
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date" yaml:"date"`
	TimeDue     string `json:"time_due" yaml:"time_due"`
	EndTime     string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Confidence  int    `json:"confidence" yaml:"confidence"`
}

type GradingCategory struct {
	Name        string  `json:"name" yaml:"name"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Description string  `json:"description" yaml:"description"`
}

// Grading is the course grade breakdown. TotalWeight is derived from the
// categories and is not required to equal 100.
type Grading struct {
	Categories  []GradingCategory `json:"categories" yaml:"categories"`
	Confidence  int               `json:"confidence" yaml:"confidence"`
	TotalWeight float64           `json:"total_weight" yaml:"total_weight"`
}

// Data is the root aggregate produced by one extraction.
type Data struct {
	CourseName  string       `json:"course_name" yaml:"course_name"`
	Instructor  string       `json:"instructor" yaml:"instructor"`
	Summary     string       `json:"summary" yaml:"summary"`
	Lectures    []Lecture    `json:"lectures" yaml:"lectures"`
	Assignments []Assignment `json:"assignments" yaml:"assignments"`
	Exams       []Exam       `json:"exams" yaml:"exams"`
	Grading     *Grading     `json:"grading" yaml:"grading"`
}

// SumWeights recomputes TotalWeight from the categories.
func (g *Grading) SumWeights() {
	if g == nil {
		return
	}
	var total float64
	for _, c := range g.Categories {
		total += c.Weight
	}
	g.TotalWeight = total
}

// Empty reports whether d carries no extracted content at all.
func (d *Data) Empty() bool {
	if d == nil {
		return true
	}
	return d.CourseName == "" && d.Instructor == "" && d.Summary == "" &&
		len(d.Lectures) == 0 && len(d.Assignments) == 0 && len(d.Exams) == 0 &&
		(d.Grading == nil || len(d.Grading.Categories) == 0)
}

// EnsureLists replaces nil slices with empty ones so the JSON form always
// carries arrays.
func (d *Data) EnsureLists() {
	if d.Lectures == nil {
		d.Lectures = []Lecture{}
	}
	if d.Assignments == nil {
		d.Assignments = []Assignment{}
	}
	if d.Exams == nil {
		d.Exams = []Exam{}
	}
}
