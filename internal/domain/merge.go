package domain

// MergeResult is the outcome of reconciling a local collection with a remote one.
type MergeResult struct {
	// Merged is the candidate collection. It never aliases either input.
	Merged Collection

	// Changed is true iff Merged is not equivalent to the local input.
	Changed bool

	// Added lists ids present only on the remote side, in remote order.
	Added []string

	// Replaced lists ids whose local record lost to a strictly newer remote one.
	Replaced []string
}

// Merge reconciles local with remote under the server-wins-on-strictly-newer policy:
//   - a remote quote whose id is unknown locally is appended;
//   - a remote quote replaces the local one in place only when its
//     LastModified is strictly greater;
//   - otherwise the local quote is kept, so ties go to local.
//
// Merge is total and pure: inputs are never modified and re-merging the
// result with the same remote yields Changed == false. When remote holds the
// same id more than once, the newest record for that id is used, which keeps
// the outcome independent of remote ordering.
func Merge(local, remote Collection) MergeResult {
	merged := local.Clone()
	if merged == nil {
		merged = Collection{}
	}

	position := merged.Index()
	candidates, order := newestByID(remote)

	var added, replaced []string

	for _, id := range order {
		r := candidates[id]

		i, ok := position[id]
		if !ok {
			position[id] = len(merged)
			merged = append(merged, r)
			added = append(added, id)

			continue
		}

		if r.LastModified > merged[i].LastModified {
			merged[i] = r
			replaced = append(replaced, id)
		}
	}

	return MergeResult{
		Merged:   merged,
		Changed:  !local.Equivalent(merged),
		Added:    added,
		Replaced: replaced,
	}
}

// newestByID collapses duplicate remote ids to a single record and returns
// the ids in first-seen order.
func newestByID(remote Collection) (map[string]Quote, []string) {
	byID := make(map[string]Quote, len(remote))
	order := make([]string, 0, len(remote))

	for _, r := range remote {
		current, seen := byID[r.ID]
		if !seen {
			order = append(order, r.ID)
			byID[r.ID] = r

			continue
		}

		if supersedes(r, current) {
			byID[r.ID] = r
		}
	}

	return byID, order
}

// supersedes orders two records sharing an id. Equal timestamps fall back to
// a content comparison so the choice does not depend on input order.
func supersedes(a, b Quote) bool {
	if a.LastModified != b.LastModified {
		return a.LastModified > b.LastModified
	}

	if a.Text != b.Text {
		return a.Text > b.Text
	}

	return a.Category > b.Category
}
