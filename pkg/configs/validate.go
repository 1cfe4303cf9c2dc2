package configs

import (
	"fmt"

	"github.com/yeisme/classmedia/pkg/rule"
)

// Validate 使用 rule 标签校验配置，并检查跨字段约束.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		return err
	}

	if len(c.Media.Kinds) == 0 {
		return fmt.Errorf("media.kinds must not be empty")
	}

	if _, ok := c.Media.Kinds[c.Media.DefaultKind]; !ok {
		return fmt.Errorf("media.default_kind %q is not a configured kind", c.Media.DefaultKind)
	}

	if _, ok := c.Media.Kinds[KindVideo]; !ok {
		return fmt.Errorf("media.kinds must define %q", KindVideo)
	}

	return nil
}
