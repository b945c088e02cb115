package model

import "github.com/iliakonnov/shatterbird/internal/ids"

// BlobFileMaxBytes is the truncation ceiling for files that failed UTF-8 line
// splitting (spec §3, §4.2).
const BlobFileMaxBytes = 10_000

// BlobFile holds a truncated payload for a file the Git ingester could not parse
// as text.
type BlobFile struct {
	Id   ids.Id[BlobFile] `bson:"_id"`
	Data []byte           `bson:"data"`
}

func (BlobFile) CollectionName() string { return "blob_files" }

// IdValue implements storeapi.Entity.
func (b BlobFile) IdValue() ids.Id[BlobFile] { return b.Id }
