package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gymtrack/internal/services"
)

// Branch names a gym location.
const (
	BranchGeneral    = "general"
	BranchSopocachi  = "sopocachi"
	BranchMiraflores = "miraflores"
)

// Exercise types.
const (
	ExerciseTypeSystem = "system"
	ExerciseTypeCustom = "custom"
)

// Photo types.
const (
	PhotoTypeGym  = "gym"
	PhotoTypeHome = "home"
)

// Series types group consecutive sets.
const (
	SeriesSingle = "serie"
	SeriesDouble = "biserie"
	SeriesTriple = "triserie"
)

const defaultRoutineSets = 3

var (
	validBranches      = []string{BranchSopocachi, BranchMiraflores, BranchGeneral}
	validExerciseTypes = []string{ExerciseTypeSystem, ExerciseTypeCustom}
	validSeriesTypes   = []string{SeriesSingle, SeriesDouble, SeriesTriple}
)

// Exercise is a catalog entry. Image and ImagePublicID are written by the
// Cloudinary sync jobs.
type Exercise struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Muscle        string    `json:"muscle"`
	Description   string    `json:"description"`
	Equipment     string    `json:"equipment"`
	Image         string    `json:"image,omitempty"`
	ImagePublicID string    `json:"imagePublicId,omitempty"`
	Thumb         string    `json:"thumb,omitempty"`
	Type          string    `json:"type"`
	OwnerID       *string   `json:"ownerId"`
	Branches      []string  `json:"branches"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RoutineExercise is one exercise slot inside a routine.
type RoutineExercise struct {
	ExerciseID string `json:"exerciseId"`
	Name       string `json:"name"`
	Sets       int    `json:"sets"`
	IsExtra    bool   `json:"isExtra"`
}

// Routine is a named, ordered list of exercises.
type Routine struct {
	ID          string            `json:"_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Branch      string            `json:"branch"`
	Exercises   []RoutineExercise `json:"exercises"`
	OwnerID     *string           `json:"ownerId"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SessionSet is one logged set of a session.
type SessionSet struct {
	Reps            float64 `json:"reps"`
	Weight          float64 `json:"weight"`
	Note            string  `json:"note"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Session records a single exercise performed on a date.
type Session struct {
	ID                      string       `json:"_id"`
	Date                    string       `json:"date"`
	TrainingID              *string      `json:"trainingId"`
	ExerciseID              string       `json:"exerciseId"`
	ExerciseName            string       `json:"exerciseName"`
	RoutineID               *string      `json:"routineId"`
	RoutineName             string       `json:"routineName"`
	Sets                    []SessionSet `json:"sets"`
	TrainingDurationSeconds float64      `json:"trainingDurationSeconds"`
	ExerciseDurationSeconds float64      `json:"exerciseDurationSeconds"`
	PhotoURL                string       `json:"photoUrl"`
	PhotoType               string       `json:"photoType"`
	OwnerID                 *string      `json:"ownerId"`
	CreatedAt               time.Time    `json:"createdAt"`
	UpdatedAt               time.Time    `json:"updatedAt"`
}

// TrainingEntry is one member of a grouped (bi/tri) set.
type TrainingEntry struct {
	WeightKg     *float64 `json:"weightKg"`
	Reps         *float64 `json:"reps"`
	Done         bool     `json:"done"`
	Order        int      `json:"order"`
	PreviousText string   `json:"previousText"`
}

// TrainingSet is one set of a training exercise.
type TrainingSet struct {
	WeightKg   *float64        `json:"weightKg"`
	Reps       *float64        `json:"reps"`
	Done       bool            `json:"done"`
	Order      int             `json:"order"`
	SeriesType string          `json:"seriesType"`
	Entries    []TrainingEntry `json:"entries"`
}

// TrainingExercise is one exercise block of a training.
type TrainingExercise struct {
	ExerciseID   *string       `json:"exerciseId"`
	ExerciseName string        `json:"exerciseName"`
	MuscleGroup  string        `json:"muscleGroup"`
	Order        int           `json:"order"`
	SeriesType   string        `json:"seriesType"`
	Sets         []TrainingSet `json:"sets"`
}

// Training is a full workout on a date.
type Training struct {
	ID              string             `json:"_id"`
	Date            string             `json:"date"`
	DurationSeconds float64            `json:"durationSeconds"`
	TotalVolume     float64            `json:"totalVolume"`
	RoutineID       *string            `json:"routineId"`
	RoutineName     string             `json:"routineName"`
	Branch          *string            `json:"branch"`
	OwnerID         *string            `json:"ownerId"`
	Exercises       []TrainingExercise `json:"exercises"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Volume sums weightKg × reps over every set. Missing values count as zero.
func (t *Training) Volume() float64 {
	var total float64
	for _, ex := range t.Exercises {
		for _, set := range ex.Sets {
			total += deref(set.WeightKg) * deref(set.Reps)
		}
	}
	return total
}

// Photo is a progress picture, stored locally or on Cloudinary.
type Photo struct {
	ID        string    `json:"_id"`
	Date      string    `json:"date"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	SessionID *string   `json:"sessionId"`
	OwnerID   *string   `json:"ownerId"`
	PublicID  string    `json:"publicId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Preference holds per-user settings.
type Preference struct {
	UserID    string         `json:"userId"`
	Branch    string         `json:"branch"`
	Goals     map[string]any `json:"goals"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func invalid(operation, message string) error {
	return services.Wrap(services.ErrValidation, "store", operation, message, nil)
}

func checkEnum(operation, field, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return invalid(operation, fmt.Sprintf("%s %q is not one of %s", field, value, strings.Join(allowed, ", ")))
}

func (e *Exercise) normalize() error {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" {
		return invalid("exercise", "id is required")
	}
	if e.Name == "" {
		return invalid("exercise", "name is required")
	}
	if e.Type == "" {
		e.Type = ExerciseTypeCustom
	}
	if err := checkEnum("exercise", "type", e.Type, validExerciseTypes); err != nil {
		return err
	}
	if len(e.Branches) == 0 {
		e.Branches = []string{BranchGeneral}
	}
	return nil
}

func (r *Routine) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return invalid("routine", "name is required")
	}
	if r.Branch == "" {
		r.Branch = BranchGeneral
	}
	if err := checkEnum("routine", "branch", r.Branch, validBranches); err != nil {
		return err
	}
	if r.Exercises == nil {
		r.Exercises = []RoutineExercise{}
	}
	for i := range r.Exercises {
		ex := &r.Exercises[i]
		if ex.ExerciseID == "" || ex.Name == "" {
			return invalid("routine", fmt.Sprintf("exercise %d requires exerciseId and name", i))
		}
		if ex.Sets == 0 {
			ex.Sets = defaultRoutineSets
		}
	}
	return nil
}

func (s *Session) normalize() error {
	if strings.TrimSpace(s.Date) == "" {
		return invalid("session", "date is required")
	}
	if s.ExerciseID == "" || s.ExerciseName == "" {
		return invalid("session", "exerciseId and exerciseName are required")
	}
	if err := checkEnum("session", "photoType", s.PhotoType, []string{PhotoTypeGym, PhotoTypeHome, ""}); err != nil {
		return err
	}
	if s.Sets == nil {
		s.Sets = []SessionSet{}
	}
	return nil
}

func (t *Training) normalize() error {
	if strings.TrimSpace(t.Date) == "" {
		return invalid("training", "date is required")
	}
	if t.Exercises == nil {
		t.Exercises = []TrainingExercise{}
	}
	for i := range t.Exercises {
		ex := &t.Exercises[i]
		if ex.SeriesType == "" {
			ex.SeriesType = SeriesSingle
		}
		if err := checkEnum("training", "seriesType", ex.SeriesType, validSeriesTypes); err != nil {
			return err
		}
		for j := range ex.Sets {
			set := &ex.Sets[j]
			if set.SeriesType == "" {
				set.SeriesType = SeriesSingle
			}
			if err := checkEnum("training", "seriesType", set.SeriesType, validSeriesTypes); err != nil {
				return err
			}
		}
	}
	t.TotalVolume = t.Volume()
	return nil
}

func (p *Photo) normalize() error {
	if strings.TrimSpace(p.Date) == "" {
		return invalid("photo", "date is required")
	}
	if strings.TrimSpace(p.URL) == "" {
		return invalid("photo", "url is required")
	}
	if p.Type == "" {
		p.Type = PhotoTypeGym
	}
	return checkEnum("photo", "type", p.Type, []string{PhotoTypeGym, PhotoTypeHome})
}

func (p *Preference) normalize() error {
	p.UserID = strings.TrimSpace(p.UserID)
	if p.UserID == "" {
		return invalid("preference", "userId is required")
	}
	if p.Branch == "" {
		p.Branch = BranchGeneral
	}
	if p.Goals == nil {
		p.Goals = map[string]any{}
	}
	return checkEnum("preference", "branch", p.Branch, validBranches)
}
