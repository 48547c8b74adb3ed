package commands

import (
	"encoding/json"
	"fmt"
)

func jsonPrettyPrint(item any) error {
	b, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
