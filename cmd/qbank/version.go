package main

import (
	"fmt"

	"github.com/ternarybob/qbank/internal/common"
)

func runVersion(args []string) error {
	fmt.Printf("qbank version %s\n", common.GetFullVersion())
	return nil
}
