package gitingest

import (
	"context"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
)

// dedupLines resolves a Line id for each line of newLines, reusing a parent
// revision's Line id wherever the text is unchanged (I4, P3). Parents are
// considered in order; once a line is mapped by the first parent that covers
// it, later parents never override it (spec §4.2 step 3).
func (ig *Ingester) dedupLines(ctx context.Context, path []string, newLines []string, parentCommits []ids.Id[model.Commit]) ([]ids.Id[model.Line], error) {
	lineIds := make([]ids.Id[model.Line], len(newLines))
	assigned := make([]bool, len(newLines))
	remaining := len(newLines)

	for _, parentCommit := range parentCommits {
		if remaining == 0 {
			break
		}

		parentNode, ok, err := ig.findNodeAtPath(ctx, parentCommit, path)
		if err != nil {
			return nil, err
		}
		if !ok || parentNode.Content.Kind != model.NodeText {
			continue
		}

		parentLineIds := parentNode.Content.Text.Lines
		parentLineTexts, err := ig.lineTexts(ctx, parentLineIds)
		if err != nil {
			return nil, err
		}

		matcher := difflib.NewMatcher(parentLineTexts, newLines)
		for _, block := range matcher.GetMatchingBlocks() {
			for k := 0; k < block.Size; k++ {
				ni := block.B + k
				if assigned[ni] {
					continue
				}
				lineIds[ni] = parentLineIds[block.A+k]
				assigned[ni] = true
				remaining--
			}
		}
	}

	var fresh []model.Line
	for i, text := range newLines {
		if assigned[i] {
			continue
		}
		row := model.Line{Id: ids.New[model.Line](), Text: text}
		lineIds[i] = row.Id
		fresh = append(fresh, row)
	}
	if len(fresh) > 0 {
		if err := ig.lines.InsertMany(ctx, fresh); err != nil {
			return nil, err
		}
	}

	return lineIds, nil
}

func (ig *Ingester) lineTexts(ctx context.Context, lineIds []ids.Id[model.Line]) ([]string, error) {
	texts := make([]string, len(lineIds))
	for i, id := range lineIds {
		line, ok, err := ig.lines.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// A Line referenced by a stored Node always exists (entities are
			// never deleted); this would indicate store corruption.
			return nil, errInconsistentLine(id)
		}
		texts[i] = line.Text
	}
	return texts, nil
}

// findNodeAtPath descends commitID's root directory by path, returning the
// leaf Node (of whatever kind) if every segment resolves.
func (ig *Ingester) findNodeAtPath(ctx context.Context, commitID ids.Id[model.Commit], path []string) (model.Node, bool, error) {
	commit, ok, err := ig.commits.Get(ctx, commitID)
	if err != nil || !ok {
		return model.Node{}, false, err
	}

	current := commit.Root
	for _, segment := range path {
		node, ok, err := ig.nodes.Get(ctx, current)
		if err != nil {
			return model.Node{}, false, err
		}
		if !ok || node.Content.Kind != model.NodeDirectory {
			return model.Node{}, false, nil
		}
		child, exists := node.Content.Directory.Children[segment]
		if !exists {
			return model.Node{}, false, nil
		}
		current = child
	}

	node, ok, err := ig.nodes.Get(ctx, current)
	if err != nil {
		return model.Node{}, false, err
	}
	return node, ok, nil
}
