package models

// Task is the data of one task view: the images on screen and the questions
// rendered next to them, in display order.
type Task struct {
	ID        string     `json:"id" validate:"required,element_id"`
	ModuleID  string     `json:"module_id,omitempty"`
	Title     string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Images    []Image    `json:"images,omitempty" validate:"dive"`
	Questions []Question `json:"questions" validate:"dive"`
}

// Question returns the question with the given id, or nil.
func (t *Task) Question(id string) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i]
		}
	}
	return nil
}
