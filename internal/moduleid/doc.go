/*
Package moduleid provides a validated representation of module identifiers
and the rules for turning an identifier into a loadable location.

An identifier is a slash-separated sequence of segments, e.g.
`lib/bootstrap` or `lib/jquery.zclip`. Dots inside a segment are part of
the name; only a trailing engine extension is ever interpreted by loaders.

Location resolution follows the alias model of browser module loaders: the
longest `paths` prefix that matches whole segments is substituted, and the
result is joined to the base URL unless the alias points somewhere absolute.
*/
package moduleid
