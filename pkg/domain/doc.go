/*
Package domain contains the core models shared by the lathe engine, its
nodes and its hosts.

It is kept free of I/O: nodes and hosts depend on it, never the other way.

# Key Entities

  - NodeSpec: the declaration a host reads to lay out a node (inputs, outputs, metadata).
  - NodeCall: a request to execute one node with a set of arguments.
  - NodeResult: the outputs of a call, or the error it produced.
  - NodeEvent: what lifecycle hooks observe around each call.
*/
package domain
