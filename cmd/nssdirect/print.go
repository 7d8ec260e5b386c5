package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/identsvc/nssdirect/pkg/nss"
)

// printer renders records in the selected output format. Text mode mimics
// the passwd(5)/group(5) colon layout that getent prints.
type printer struct {
	format string
}

func (p *printer) printUser(u *nss.UserRecord) error {
	return p.printUsers([]nss.UserRecord{*u})
}

func (p *printer) printGroup(g *nss.GroupRecord) error {
	return p.printGroups([]nss.GroupRecord{*g})
}

func (p *printer) printUsers(records []nss.UserRecord) error {
	switch p.format {
	case "text":
		for _, u := range records {
			fmt.Printf("%s:x:%d:%d:%s:%s:%s\n", u.Name, u.UID, u.GID, u.Comment, u.HomeDir, u.Shell)
		}
		return nil
	default:
		return p.marshal(records)
	}
}

func (p *printer) printGroups(records []nss.GroupRecord) error {
	switch p.format {
	case "text":
		for _, g := range records {
			fmt.Printf("%s:x:%d:%s\n", g.Name, g.GID, strings.Join(g.Members, ","))
		}
		return nil
	default:
		return p.marshal(records)
	}
}

func (p *printer) marshal(v any) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", p.format)
	}
}
