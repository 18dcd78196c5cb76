package columnar

import "github.com/parquedb/parquedb/core"

// Materialize replays a branch's event log into the live per-entity
// documents the columnar layer shreds and writes, per spec §3/§4.4:
// CREATE seeds a document, UPDATE applies $set/$inc (or, absent
// metadata, the before/after diff per spec §9's open question), and
// DELETE soft-deletes by stamping deletedAt/deletedBy rather than
// removing the row, so Parquet snapshots remain append-friendly.
//
// identity and ts stamp the audit columns; callers materializing a
// historical commit pass that commit's author and timestamp.
func Materialize(events []core.Event, identity core.Identity, ts int64) map[string]core.Document {
	docs := make(map[string]core.Document, len(events))
	for _, e := range events {
		switch e.Op {
		case core.OpCreate:
			doc := cloneDocument(e.After)
			stampCreated(doc, identity, ts)
			docs[e.Target] = doc
		case core.OpUpdate:
			doc, ok := docs[e.Target]
			if !ok {
				doc = cloneDocument(e.Before)
			}
			applyUpdate(doc, e)
			stampUpdated(doc, identity, ts)
			docs[e.Target] = doc
		case core.OpDelete:
			doc, ok := docs[e.Target]
			if !ok {
				doc = cloneDocument(e.Before)
			}
			doc["deletedAt"] = float64(ts)
			doc["deletedBy"] = identityName(identity)
			stampUpdated(doc, identity, ts)
			docs[e.Target] = doc
		}
	}
	return docs
}

// applyUpdate mutates doc per e's UpdateOp, or, when metadata is
// absent, infers the changed fields from before/after and treats them
// as an implicit $set, preserving the original repository's inference
// rule (spec §9).
func applyUpdate(doc core.Document, e core.Event) {
	if e.Metadata != nil && e.Metadata.Update != nil {
		for k, v := range e.Metadata.Update.Set {
			doc[k] = v
		}
		for k, delta := range e.Metadata.Update.Inc {
			base, _ := doc[k].(float64)
			doc[k] = base + delta
		}
		return
	}
	for k, v := range e.After {
		if existing, ok := e.Before[k]; !ok || !valuesEqual(existing, v) {
			doc[k] = v
		}
	}
}

func stampCreated(doc core.Document, identity core.Identity, ts int64) {
	doc["createdAt"] = float64(ts)
	doc["createdBy"] = identityName(identity)
	doc["updatedAt"] = float64(ts)
	doc["updatedBy"] = identityName(identity)
	doc["version"] = float64(1)
}

func stampUpdated(doc core.Document, identity core.Identity, ts int64) {
	doc["updatedAt"] = float64(ts)
	doc["updatedBy"] = identityName(identity)
	v, _ := doc["version"].(float64)
	doc["version"] = v + 1
}

func identityName(identity core.Identity) string {
	if identity.Email != "" {
		return identity.Email
	}
	return identity.Name
}

func cloneDocument(d core.Document) core.Document {
	out := make(core.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
