/*
Package odns implements a DNS proxy that answers selected names from a static
list of override rules and forwards everything else to an upstream resolver.

Rules

A rule table is an ordered list of rules, each made up of a name matcher and
one or more record templates. The first rule matching a query name wins. A
matched question is answered with the rule's records, renamed to the query
name. CNAME records are returned as defined, and their target is additionally
resolved with an A lookup so the response carries the full alias chain.

Forwarding

Questions that no rule matches are forwarded to the upstream resolver, one
exchange per question with a fixed timeout. Forwarders can be limited in the
number of questions they have in flight across all requests.

Coordinator

The coordinator handles queries with any number of questions. All forwards
for a query run concurrently and the single response is built once all of them
have completed. Failed forwards don't fail the query, they just don't
contribute answers.

Listeners

Listeners receive queries over UDP or TCP and pass them to a resolver, which
typically is a coordinator, possibly wrapped in a query logger.
*/
package odns
