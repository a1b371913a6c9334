package core

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
)

// BookMUS serializes Book records to the MUS binary format used for
// storage values. Field order is part of the on-disk format.
var BookMUS = bookMUS{}

type bookMUS struct{}

var _ mus.Serializer[Book] = bookMUS{}

func (s bookMUS) Marshal(v Book, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Author, bs[n:])
	n += ord.String.Marshal(v.Genre, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.Language, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	return n
}

func (s bookMUS) Unmarshal(bs []byte) (v Book, n int, err error) {
	fields := []*string{
		&v.ID, &v.Title, &v.Author, &v.Genre,
		&v.Description, &v.Language, &v.Source,
	}
	for _, field := range fields {
		var n1 int
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s bookMUS) Size(v Book) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Author)
	size += ord.String.Size(v.Genre)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(v.Language)
	size += ord.String.Size(v.Source)
	return size
}

func (s bookMUS) Skip(bs []byte) (n int, err error) {
	for i := 0; i < 7; i++ {
		var n1 int
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
