package utilfuncs

import (
	"fmt"
	"os"
)

// PanicIfError is for startup code only: it prints message and exits.
func PanicIfError(err error, message string) {
	if err != nil {
		fmt.Println(message)
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
