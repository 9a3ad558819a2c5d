package raumfeld

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// arg is one SOAP action argument. Raumfeld devices reject arguments out of
// the order declared in the service description.
type arg struct {
	name  string
	value string
}

func instance() arg { return arg{"InstanceID", "0"} }

// service is a UPnP service endpoint of a described device.
type service struct {
	Type       string
	ControlURL string
}

func (s service) ok() bool {
	return s.ControlURL != "" && s.Type != ""
}

type soapClient struct {
	log  *zap.Logger
	http *http.Client
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault    *soapFault    `xml:"Fault"`
		Response *soapResponse `xml:",any"`
	} `xml:"Body"`
}

type soapResponse struct {
	XMLName xml.Name
	Fields  []soapField `xml:",any"`
}

type soapField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Detail struct {
		UPnPError struct {
			Code        string `xml:"errorCode"`
			Description string `xml:"errorDescription"`
		} `xml:"UPnPError"`
	} `xml:"detail"`
}

func (f *soapFault) Error() string {
	if f == nil {
		return ""
	}
	upnp := f.Detail.UPnPError
	if upnp.Code != "" {
		return fmt.Sprintf("%s: upnp error %s %s", f.String, upnp.Code, upnp.Description)
	}
	return f.String
}

// call invokes action on svc and returns the output arguments by name.
func (c *soapClient) call(ctx context.Context, svc service, action string, args ...arg) (map[string]string, error) {
	if !svc.ok() {
		return nil, fmt.Errorf("soap %s: service not available", action)
	}
	envelope := buildSOAPEnvelope(action, svc.Type, args)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.ControlURL, bytes.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, svc.Type, action))
	c.log.Debug("soap request", zap.String("endpoint", svc.ControlURL), zap.String("action", action))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("soap %s: %w", action, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("soap %s: read body: %w", action, err)
	}

	var env soapEnvelope
	decodeErr := xml.Unmarshal(body, &env)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.Body.Fault != nil {
			return nil, fmt.Errorf("soap %s: %w", action, env.Body.Fault)
		}
		c.log.Debug("soap http error",
			zap.String("action", action),
			zap.String("status", resp.Status),
			zap.String("body", truncate(string(body), 512)),
		)
		return nil, fmt.Errorf("soap %s: %s", action, resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("soap %s: decode: %w", action, decodeErr)
	}
	if env.Body.Fault != nil {
		return nil, fmt.Errorf("soap %s: %w", action, env.Body.Fault)
	}
	out := map[string]string{}
	if env.Body.Response != nil {
		for _, f := range env.Body.Response.Fields {
			out[f.XMLName.Local] = f.Value
		}
	}
	return out, nil
}

func buildSOAPEnvelope(action string, serviceType string, args []arg) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0"?>`)
	buf.WriteString(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">`)
	buf.WriteString(`<s:Body><u:` + action + ` xmlns:u="` + serviceType + `">`)
	for _, a := range args {
		buf.WriteString("<" + a.name + ">" + xmlEscape(a.value) + "</" + a.name + ">")
	}
	buf.WriteString(`</u:` + action + `></s:Body></s:Envelope>`)
	return buf.Bytes()
}

var xmlReplacer = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&apos;",
)

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}

func truncate(body string, limit int) string {
	if limit <= 0 || len(body) <= limit {
		return body
	}
	return body[:limit]
}
