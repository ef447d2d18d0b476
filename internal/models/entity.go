package models

// EntityKind identifies the type of a span extracted from message text.
type EntityKind string

const (
	EntityOrderID         EntityKind = "order_id"
	EntityTicketID        EntityKind = "ticket_id"
	EntityPhone           EntityKind = "phone"
	EntityAmount          EntityKind = "amount"
	EntitySerialNumber    EntityKind = "serial_number"
	EntityMissingPartName EntityKind = "missing_part_name"
	EntityAgentName       EntityKind = "agent_name"
)

// Entity is a single extracted value with its location in the text.
type Entity struct {
	// Normalized value (uppercased IDs, comma-stripped amounts, ...)
	Value string `json:"value" yaml:"value"`

	// Byte offsets of the raw match in the sanitized text; End exclusive
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// EntityBag holds every entity extracted from one message, keyed by
// kind. Values within a kind keep first-match order and are unique.
type EntityBag map[EntityKind][]Entity

// Add appends an entity under kind, dropping duplicate values.
func (b EntityBag) Add(kind EntityKind, e Entity) {
	for _, existing := range b[kind] {
		if existing.Value == e.Value {
			return
		}
	}
	b[kind] = append(b[kind], e)
}

// Has reports whether at least one entity of the kind was extracted.
func (b EntityBag) Has(kind EntityKind) bool {
	return len(b[kind]) > 0
}

// Len returns the total entity count across all kinds.
func (b EntityBag) Len() int {
	n := 0
	for _, entities := range b {
		n += len(entities)
	}
	return n
}

// First returns the earliest extracted entity of the kind.
func (b EntityBag) First(kind EntityKind) (Entity, bool) {
	if entities := b[kind]; len(entities) > 0 {
		return entities[0], true
	}
	return Entity{}, false
}

// FirstValue returns the earliest extracted value of the kind, or "".
func (b EntityBag) FirstValue(kind EntityKind) string {
	e, _ := b.First(kind)
	return e.Value
}

// Values returns all extracted values of the kind in match order.
func (b EntityBag) Values(kind EntityKind) []string {
	entities := b[kind]
	if len(entities) == 0 {
		return nil
	}
	values := make([]string, len(entities))
	for i, e := range entities {
		values[i] = e.Value
	}
	return values
}
