package gitingest

import (
	"fmt"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
)

func errInconsistentLine(id ids.Id[model.Line]) error {
	return fmt.Errorf("gitingest: line %s referenced by a stored node does not exist", id)
}
