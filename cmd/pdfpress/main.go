package main

import (
	"fmt"
	"os"
	"strconv"

	"pdfpress/internal/core"
)

const usage = `usage: pdfpress <command> [args]

commands:
  merge <out.pdf> <in1.pdf> <in2.pdf> [...]   concatenate PDFs in order
  split <in.pdf> <outdir>                      one PDF per page
  compress <in.pdf> <out.pdf>                  optimize the document
  rotate <in.pdf> <out.pdf> <angle> [pages]    rotate all/odd/even pages
  encrypt <in.pdf> <out.pdf> <password>        password-protect
  decrypt <in.pdf> <out.pdf> <password>        remove protection
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "merge":
		if len(rest) < 3 {
			return &core.ValidationError{Arg: cmd, Cause: "merge needs an output and at least 2 inputs"}
		}
		inputs, err := core.ValidatePDFArgs(rest[1:], 2)
		if err != nil {
			return err
		}
		if err := core.MergePDFs(inputs, rest[0]); err != nil {
			return err
		}
		fmt.Printf("merged %d files into %s\n", len(inputs), rest[0])

	case "split":
		if len(rest) != 2 {
			return &core.ValidationError{Arg: cmd, Cause: "split needs an input and an output directory"}
		}
		inputs, err := core.ValidatePDFArgs(rest[:1], 1)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(rest[1], 0755); err != nil {
			return err
		}
		pages, err := core.SplitPDF(inputs[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Printf("split into %d pages under %s\n", len(pages), rest[1])

	case "compress":
		if len(rest) != 2 {
			return &core.ValidationError{Arg: cmd, Cause: "compress needs an input and an output"}
		}
		inputs, err := core.ValidatePDFArgs(rest[:1], 1)
		if err != nil {
			return err
		}
		if err := core.CompressPDF(inputs[0], rest[1]); err != nil {
			return err
		}
		fmt.Printf("compressed %s -> %s\n", inputs[0], rest[1])

	case "rotate":
		if len(rest) < 3 {
			return &core.ValidationError{Arg: cmd, Cause: "rotate needs an input, an output and an angle"}
		}
		inputs, err := core.ValidatePDFArgs(rest[:1], 1)
		if err != nil {
			return err
		}
		angle, err := strconv.Atoi(rest[2])
		if err != nil {
			return &core.ValidationError{Arg: rest[2], Cause: "angle must be a number"}
		}
		pages := "all"
		if len(rest) > 3 {
			pages = rest[3]
		}
		if err := core.RotatePDF(inputs[0], rest[1], angle, pages); err != nil {
			return err
		}
		fmt.Printf("rotated %s by %d degrees -> %s\n", inputs[0], angle, rest[1])

	case "encrypt":
		if len(rest) != 3 {
			return &core.ValidationError{Arg: cmd, Cause: "encrypt needs an input, an output and a password"}
		}
		inputs, err := core.ValidatePDFArgs(rest[:1], 1)
		if err != nil {
			return err
		}
		if err := core.EncryptPDF(inputs[0], rest[1], rest[2]); err != nil {
			return err
		}
		fmt.Printf("encrypted %s -> %s\n", inputs[0], rest[1])

	case "decrypt":
		if len(rest) != 3 {
			return &core.ValidationError{Arg: cmd, Cause: "decrypt needs an input, an output and a password"}
		}
		inputs, err := core.ValidatePDFArgs(rest[:1], 1)
		if err != nil {
			return err
		}
		if err := core.DecryptPDF(inputs[0], rest[1], rest[2]); err != nil {
			return err
		}
		fmt.Printf("decrypted %s -> %s\n", inputs[0], rest[1])

	default:
		fmt.Fprint(os.Stderr, usage)
		return &core.ValidationError{Arg: cmd, Cause: "unknown command"}
	}

	return nil
}
