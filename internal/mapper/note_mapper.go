package mapper

import (
	"whiteboard-relay/internal/dto"
	"whiteboard-relay/internal/entity"
	"whiteboard-relay/internal/model"
)

type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToEntity(n *model.Note) *entity.Note {
	if n == nil {
		return nil
	}
	return (&entity.Note{
		Id:        n.Id,
		X:         n.X,
		Y:         n.Y,
		Content:   n.Content,
		Color:     n.Color,
		Timer:     n.Timer,
		CreatedAt: n.CreatedAt,
	}).Clone()
}

func (m *NoteMapper) ToEntities(models []*model.Note) []*entity.Note {
	out := make([]*entity.Note, 0, len(models))
	for _, n := range models {
		if n == nil {
			continue
		}
		out = append(out, m.ToEntity(n))
	}
	return out
}

func (m *NoteMapper) ToModel(n *entity.Note) *model.Note {
	if n == nil {
		return nil
	}
	c := n.Clone()
	return &model.Note{
		Id:        c.Id,
		X:         c.X,
		Y:         c.Y,
		Content:   c.Content,
		Color:     c.Color,
		Timer:     c.Timer,
		CreatedAt: c.CreatedAt,
	}
}

// ToUpdateColumns lists only the fields present in the patch. Postgres
// columns and Mongo document keys share these names.
func (m *NoteMapper) ToUpdateColumns(p entity.NotePatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.X != nil {
		cols["x"] = *p.X
	}
	if p.Y != nil {
		cols["y"] = *p.Y
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Color != nil {
		cols["color"] = *p.Color
	}
	if p.Timer != nil {
		cols["timer"] = *p.Timer
	}
	return cols
}

func (m *NoteMapper) ToResponse(n *entity.Note) *dto.NoteResponse {
	if n == nil {
		return nil
	}
	c := n.Clone()
	return &dto.NoteResponse{
		Id:        c.Id,
		X:         c.X,
		Y:         c.Y,
		Content:   c.Content,
		Color:     c.Color,
		Timer:     c.Timer,
		CreatedAt: c.CreatedAt,
	}
}

// ToResponses never returns nil so an empty board encodes as [].
func (m *NoteMapper) ToResponses(notes []*entity.Note) []*dto.NoteResponse {
	out := make([]*dto.NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, m.ToResponse(n))
	}
	return out
}

func (m *NoteMapper) FromAddRequest(req *dto.AddNoteRequest) *entity.Note {
	n := &entity.Note{
		Id:      req.Id,
		Content: req.Content,
		Color:   req.Color,
	}
	if req.X != nil {
		n.X = *req.X
	}
	if req.Y != nil {
		n.Y = *req.Y
	}
	if req.Timer != nil {
		t := *req.Timer
		n.Timer = &t
	}
	return n
}

func (m *NoteMapper) FromUpdateRequest(req *dto.UpdateNoteRequest) entity.NotePatch {
	return entity.NotePatch{
		X:       req.X,
		Y:       req.Y,
		Content: req.Content,
		Color:   req.Color,
		Timer:   req.Timer,
	}
}

// FromResponse rebuilds a note received from another relay instance.
func (m *NoteMapper) FromResponse(r *dto.NoteResponse) *entity.Note {
	if r == nil {
		return nil
	}
	return (&entity.Note{
		Id:        r.Id,
		X:         r.X,
		Y:         r.Y,
		Content:   r.Content,
		Color:     r.Color,
		Timer:     r.Timer,
		CreatedAt: r.CreatedAt,
	}).Clone()
}
