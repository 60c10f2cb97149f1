// Package knowledge holds what the robot knows about the campus: the
// entity directories the language pipeline matches against, and the
// response generation that turns a parsed intent into spoken text.
package knowledge

import (
	"fmt"

	"campus-robot/pkg/nlu"
)

// Directory supplies the candidate names for entity extraction. Lists are
// snapshots; callers must not mutate the returned slices.
type Directory interface {
	LocationNames() []string
	FacultyNames() []string
	DepartmentNames() []string
}

// StaticDirectory is a fixed in-memory directory.
type StaticDirectory struct {
	Locations   []string
	Faculty     []string
	Departments []string
}

func (d *StaticDirectory) LocationNames() []string   { return d.Locations }
func (d *StaticDirectory) FacultyNames() []string    { return d.Faculty }
func (d *StaticDirectory) DepartmentNames() []string { return d.Departments }

// SampleDirectory returns a small campus directory suitable for demos and
// console runs.
func SampleDirectory() *StaticDirectory {
	return &StaticDirectory{
		Locations: []string{
			"Central Library",
			"Main Auditorium",
			"CS Block",
			"Admin Office",
			"Canteen",
			"Sports Complex",
			"Main Gate",
			"Computer Lab",
		},
		Faculty: []string{
			"Dr. Rajesh Kumar",
			"Dr. Priya Sharma",
			"Prof. Anil Verma",
			"Dr. Meena Nair",
		},
		Departments: []string{
			"Computer Science",
			"Information Technology",
			"Mechanical Engineering",
			"Electronics and Communication",
			"Commerce",
		},
	}
}

// Responder turns a parsed intent into the robot's spoken reply.
type Responder interface {
	Respond(parsed *nlu.ParsedIntent) (string, error)
}

// StaticResponder answers from canned templates and optional per-entity
// detail maps. Missing details degrade to a generic but helpful sentence
// rather than an error.
type StaticResponder struct {
	// Directions maps a location name to spoken walking directions.
	Directions map[string]string
	// FacultyDetails maps a faculty name to a spoken description.
	FacultyDetails map[string]string
	// DepartmentDetails maps a department name to a spoken description.
	DepartmentDetails map[string]string
}

func NewStaticResponder() *StaticResponder {
	return &StaticResponder{}
}

func (r *StaticResponder) Respond(parsed *nlu.ParsedIntent) (string, error) {
	switch parsed.Intent {
	case nlu.IntentGreeting:
		return "Hello! I am your campus assistant. Ask me for directions, or about faculty and departments.", nil

	case nlu.IntentFarewell:
		return "Goodbye! Say the wake word whenever you need me again.", nil

	case nlu.IntentHelp:
		return "I can guide you around campus, tell you about faculty members and departments, and answer general campus questions.", nil

	case nlu.IntentNavigation:
		if loc, ok := parsed.Entity(nlu.EntityLocation); ok {
			if directions, ok := r.Directions[loc]; ok {
				return directions, nil
			}
			return fmt.Sprintf("The %s is on campus. Follow the signboards from the main corridor, or ask me for another landmark nearby.", loc), nil
		}
		return "Which place would you like directions to?", nil

	case nlu.IntentFacultyInfo:
		if name, ok := parsed.Entity(nlu.EntityFaculty); ok {
			if detail, ok := r.FacultyDetails[name]; ok {
				return detail, nil
			}
			return fmt.Sprintf("%s is a member of our faculty. You can find their office hours posted outside the department office.", name), nil
		}
		return "Which faculty member are you asking about?", nil

	case nlu.IntentDepartmentInfo:
		if dept, ok := parsed.Entity(nlu.EntityDepartment); ok {
			if detail, ok := r.DepartmentDetails[dept]; ok {
				return detail, nil
			}
			return fmt.Sprintf("The %s department offers undergraduate and postgraduate programmes. The department office can share the detailed curriculum.", dept), nil
		}
		return "Which department would you like to know about?", nil

	case nlu.IntentStudentLookup:
		return "I cannot share individual student records, but the admin office can help with enrollment queries.", nil

	case nlu.IntentCampusInfo:
		return "Our campus has a central library, modern labs, sports facilities and an active placement cell. Ask me about any of them.", nil

	default:
		return "Sorry, I did not catch that. Could you rephrase your question?", nil
	}
}
