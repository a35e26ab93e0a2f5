package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/docmesh-go/internal/cli/connection"
	"github.com/yndnr/docmesh-go/internal/cli/output"
	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// ListCommand lists the ids of a type on the node and its peers.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List documents of a type, grouped by server",
		ArgsUsage: "TYPE",
		Action:    documentList,
	}
}

// GetCommand prints a document.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a document",
		ArgsUsage: "TYPE ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "xslt",
				Usage: "XSLT id to apply (xml only)",
			},
		},
		Action: documentGet,
	}
}

// CreateCommand stores a new document.
func CreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Store a new document",
		ArgsUsage: "TYPE [CONTENT]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read content from a file, - for stdin",
			},
			&cli.StringFlag{
				Name:  "xsd",
				Usage: "XSD id the stylesheet depends on (xslt only)",
			},
		},
		Action: documentCreate,
	}
}

// DeleteCommand removes a document.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a document from the node and its peers",
		ArgsUsage: "TYPE ID",
		Action:    documentDelete,
	}
}

// listingTable renders one row per id.
type listingTable []connection.Listing

func (l listingTable) Table() *output.Table {
	t := &output.Table{Headers: []string{"SERVER", "ID"}}
	for _, group := range l {
		for _, id := range group.IDs {
			t.AddRow(group.Server, id)
		}
	}
	return t
}

// documentResult is the json/yaml shape of get and create.
type documentResult struct {
	Type    string `json:"type" yaml:"type"`
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

func kindArg(c *cli.Context) (domain.Kind, error) {
	arg := c.Args().First()
	if arg == "" {
		return "", errors.New("document type required (html, xml, xsd, xslt)")
	}
	kind, ok := domain.ParseKind(strings.ToLower(arg))
	if !ok {
		return "", fmt.Errorf("unknown document type %q (html, xml, xsd, xslt)", arg)
	}
	return kind, nil
}

func idArg(c *cli.Context) (string, error) {
	id := c.Args().Get(1)
	if id == "" {
		return "", errors.New("document ID required")
	}
	return id, nil
}

func documentList(c *cli.Context) error {
	kind, err := kindArg(c)
	if err != nil {
		return err
	}
	cl, f, flags, err := client(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	listings, err := cl.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}
	if flags.Output == output.FormatTable {
		return f.Format(writer(c), listingTable(listings))
	}
	return f.Format(writer(c), listings)
}

func documentGet(c *cli.Context) error {
	kind, err := kindArg(c)
	if err != nil {
		return err
	}
	id, err := idArg(c)
	if err != nil {
		return err
	}
	cl, f, flags, err := client(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	content, err := cl.Get(ctx, kind, id, c.String("xslt"))
	if err != nil {
		return fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	if flags.Output == output.FormatTable {
		return f.Format(writer(c), content)
	}
	return f.Format(writer(c), documentResult{Type: kind.String(), ID: id, Content: content})
}

func documentCreate(c *cli.Context) error {
	kind, err := kindArg(c)
	if err != nil {
		return err
	}
	content, err := readContent(c)
	if err != nil {
		return err
	}
	xsd := c.String("xsd")
	if kind == domain.KindXSLT && xsd == "" {
		return errors.New("--xsd is required for xslt documents")
	}

	cl, f, flags, err := client(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	id, err := cl.Create(ctx, kind, content, xsd)
	if err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	if flags.Output == output.FormatTable {
		return f.Format(writer(c), id)
	}
	return f.Format(writer(c), documentResult{Type: kind.String(), ID: id})
}

func readContent(c *cli.Context) (string, error) {
	path := c.String("file")
	inline := c.Args().Get(1)

	switch {
	case path != "" && inline != "":
		return "", errors.New("give content either inline or with --file, not both")
	case path == "-":
		data, err := io.ReadAll(c.App.Reader)
		return string(data), err
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return string(data), nil
	case inline != "":
		return inline, nil
	default:
		return "", errors.New("document content required (inline or --file)")
	}
}

func documentDelete(c *cli.Context) error {
	kind, err := kindArg(c)
	if err != nil {
		return err
	}
	id, err := idArg(c)
	if err != nil {
		return err
	}
	cl, f, flags, err := client(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	if err := cl.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if flags.Output == output.FormatTable {
		return f.Format(writer(c), "deleted "+id)
	}
	return f.Format(writer(c), documentResult{Type: kind.String(), ID: id})
}
