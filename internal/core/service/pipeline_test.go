package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/peer"
	"github.com/yndnr/docmesh-go/internal/storage/memory"
	"github.com/yndnr/docmesh-go/internal/xmlproc"
)

const pipelineXSD = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="note">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="to" type="xs:string"/>
        <xs:element name="body" type="xs:string"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

const pipelineXSLT = `<?xml version="1.0" encoding="UTF-8"?>
<xsl:stylesheet version="1.0" xmlns:xsl="http://www.w3.org/1999/XSL/Transform">
  <xsl:output method="text"/>
  <xsl:template match="/note">To: <xsl:value-of select="to"/></xsl:template>
</xsl:stylesheet>`

// TestController_XMLTransformLibXML runs the validate and transform chain
// through libxml2 and libxslt, interleaving rejected documents with valid
// ones on a single OS thread.
func TestController_XMLTransformLibXML(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ctx := context.Background()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend := memory.New()
	reg, err := peer.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := New(backend, reg, xmlproc.NewLibXML(discard), Options{Logger: discard})

	put := func(doc *domain.Document) *domain.Document {
		t.Helper()
		if err := backend.Store(doc.Kind).Create(ctx, doc); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		return doc
	}

	xsd := put(domain.NewDocument(domain.KindXSD, pipelineXSD))
	xslt := put(domain.NewXSLTDocument(xsd.ID, pipelineXSLT))
	good := put(domain.NewDocument(domain.KindXML, `<note><to>Ada</to><body>hi</body></note>`))
	incomplete := put(domain.NewDocument(domain.KindXML, `<note><to>Ada</to></note>`))
	broken := put(domain.NewDocument(domain.KindXML, `<note><to>`))

	c, ok := svc.Controller(domain.KindXML)
	if !ok {
		t.Fatal("no xml controller")
	}

	for _, bad := range []*domain.Document{incomplete, broken, incomplete} {
		if _, err := c.Get(ctx, bad.ID, GetOptions{XSLT: xslt.ID}); !errors.Is(err, domain.ErrBadRequest) {
			t.Fatalf("Get(%s) error = %v, want ErrBadRequest", bad.ID, err)
		}

		got, err := c.Get(ctx, good.ID, GetOptions{XSLT: xslt.ID})
		if err != nil {
			t.Fatalf("Get() after rejected document error = %v", err)
		}
		if !strings.Contains(got, "To: Ada") {
			t.Errorf("Get() = %q, want it to contain %q", got, "To: Ada")
		}
	}
}
