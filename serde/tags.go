package serde

// TaggedField is a single entry of a tag section (KIP-482).
type TaggedField struct {
	Tag  uint32
	Data []byte
}

// TagBuffer is the trailing tag section carried by flexible structs.
// A nil or empty TagBuffer encodes as the single byte 0x00.
type TagBuffer []TaggedField

// PutTagBuffer writes the tag count followed by each {tag, len, bytes}.
// The count is not biased: an empty section is 0, one field is 1.
func (e *Encoder) PutTagBuffer(tags TagBuffer) {
	e.PutUvarint(uint32(len(tags)))
	for _, f := range tags {
		e.PutUvarint(f.Tag)
		e.PutUvarint(uint32(len(f.Data)))
		e.PutBytes(f.Data)
	}
}

// TagBuffer reads a tag section. An empty section decodes to nil.
func (d *Decoder) TagBuffer() TagBuffer {
	count := d.Uvarint()
	if d.err != nil || count == 0 {
		return nil
	}
	// each field takes at least two bytes, which bounds the allocation
	if int(count) > d.remainingLen()/2 {
		d.fail(ErrTruncatedInput, "tag section of %d fields", count)
		return nil
	}
	tags := make(TagBuffer, 0, count)
	for i := uint32(0); i < count; i++ {
		tag := d.Uvarint()
		size := d.Uvarint()
		data := d.GetNBytes(int(size))
		if d.err != nil {
			return nil
		}
		tags = append(tags, TaggedField{Tag: tag, Data: data})
	}
	return tags
}
