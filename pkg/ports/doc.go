/*
Package ports defines the driven ports (interfaces) of the lathe engine.

# Key Interfaces

  - NodeEngine: what hosts drive (inspect declarations, execute calls).
  - DistributedLocker: serialises work that must not run twice at once
    (video assembly), in-process or across replicas.
*/
package ports
