// Package tag parses the region markup that vcc embeds as comments inside
// generated source files.
//
// A region is opened and closed by tags written after the host language's
// line-comment delimiter:
//
//	// <vcc:body sync="FULL" gen="FORCE">
//	... generated or hand-written code ...
//	// </vcc:body>
//
// Self-closing tags (// <vcc:slot gen="DEMAND"/>) mark an empty region.
// Header pseudo-tags such as <?xml ...?> or <!-- ... --> that follow the
// delimiter are kept verbatim as text and never merged.
//
// Only a delimiter followed by a tag in the configured namespace is markup.
// Every other '<' in the host file is plain text, so C++ templates, Java
// generics and HTML inside string literals pass through untouched.
//
// # Spans
//
// Every Node records the exact substrings it was parsed from (Open, Close,
// Full) and its half-open byte range [Start, End). String rebuilds the text
// from the tree, so re-serializing an unmodified tree reproduces the input
// byte for byte:
//
//	doc, err := tag.Parse(src, tag.WithDelimiter("#"))
//	if err != nil {
//	    return err
//	}
//	doc.String() == src // always true
//
// # Errors
//
// Malformed markup yields a *ParseError carrying the byte offset and the
// 1-based line and column. Use errors.Is with the Err* sentinels to branch on
// the failure kind.
package tag
